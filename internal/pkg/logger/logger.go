package logger

import (
	"encoding/json"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Logger define a interface para logging estruturado.
// A aplicação (Handler, Service, Repository) deve depender apenas desta interface.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, err error)
	Fatal(msg string, err error)
}

// LogEntry define a estrutura de um log para garantir o formato JSON.
type LogEntry struct {
	Timestamp string                 `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
	Error     string                 `json:"error,omitempty"`
}

// SimpleLogger é uma implementação concreta da interface Logger com output JSON estruturado,
// uma linha por entrada.
type SimpleLogger struct {
	logLevel string // e.g., "debug", "info", "warn", "error"
	mu       sync.Mutex
	out      io.Writer
	exit     func(int)
}

// NewLogger cria um Logger que escreve em stdout.
// Esta função é chamada no main.go.
func NewLogger(level string) Logger {
	return NewWithWriter(level, os.Stdout)
}

// NewWithWriter cria um Logger que escreve no writer informado (útil em testes).
func NewWithWriter(level string, w io.Writer) *SimpleLogger {
	return &SimpleLogger{logLevel: strings.ToLower(level), out: w, exit: os.Exit}
}

// Nop retorna um Logger que descarta tudo.
func Nop() Logger {
	return NewWithWriter("fatal", io.Discard)
}

var levels = map[string]int{
	"debug": 0,
	"info":  1,
	"warn":  2,
	"error": 3,
	"fatal": 4,
}

// logf formata a entrada como JSON e a escreve na saída configurada.
func (l *SimpleLogger) logf(level, msg string, fields map[string]interface{}, err error) {
	if !l.shouldLog(level) {
		return
	}

	entry := LogEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Level:     strings.ToUpper(level),
		Message:   msg,
		Fields:    fields,
	}
	if err != nil {
		entry.Error = err.Error()
	}

	jsonBytes, _ := json.Marshal(entry)

	l.mu.Lock()
	l.out.Write(append(jsonBytes, '\n'))
	l.mu.Unlock()

	if level == "fatal" {
		l.exit(1)
	}
}

// shouldLog compara o nível da entrada com o nível configurado (padrão: info).
func (l *SimpleLogger) shouldLog(level string) bool {
	currentLevel, ok := levels[l.logLevel]
	if !ok {
		currentLevel = levels["info"]
	}
	targetLevel, ok := levels[level]
	if !ok {
		return false
	}
	// Fatal sempre é registrado, pois encerra o processo.
	return level == "fatal" || targetLevel >= currentLevel
}

// Implementações da Interface Logger

func (l *SimpleLogger) Debug(msg string, fields map[string]interface{}) {
	l.logf("debug", msg, fields, nil)
}

func (l *SimpleLogger) Info(msg string, fields map[string]interface{}) {
	l.logf("info", msg, fields, nil)
}

func (l *SimpleLogger) Warn(msg string, fields map[string]interface{}) {
	l.logf("warn", msg, fields, nil)
}

func (l *SimpleLogger) Error(msg string, err error) {
	l.logf("error", msg, nil, err)
}

func (l *SimpleLogger) Fatal(msg string, err error) {
	l.logf("fatal", msg, nil, err)
}
