// Package toast доставляет оператору короткие сообщения об успехе и ошибках.
package toast

import (
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/domain"
	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/metrics"
)

// LogNotifier пишет сообщения в лог и считает их в метриках.
type LogNotifier struct {
	logger  *log.Entry
	metrics *metrics.CafeMetrics
}

// NewLogNotifier создаёт notifier поверх logrus.
func NewLogNotifier(logger *log.Entry, m *metrics.CafeMetrics) *LogNotifier {
	if logger == nil {
		logger = log.WithField("component", "toast")
	}
	return &LogNotifier{logger: logger, metrics: m}
}

// Notify пишет сообщение: success на info, error на error.
func (n *LogNotifier) Notify(kind domain.ToastKind, message string) {
	n.metrics.RecordToast(string(kind))
	entry := n.logger.WithField("toast", string(kind))
	if kind == domain.ToastError {
		entry.Error(message)
		return
	}
	entry.Info(message)
}

// Message — сохранённое сообщение Recorder.
type Message struct {
	Kind domain.ToastKind
	Text string
}

// Recorder запоминает сообщения. Используется в тестах и для ответа API.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

// Notify сохраняет сообщение.
func (r *Recorder) Notify(kind domain.ToastKind, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, Message{Kind: kind, Text: message})
}

// Messages возвращает копию сообщений.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.messages...)
}

// Last возвращает последнее сообщение.
func (r *Recorder) Last() (Message, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.messages) == 0 {
		return Message{}, false
	}
	return r.messages[len(r.messages)-1], true
}

// Fanout рассылает сообщение нескольким получателям.
type Fanout []domain.Notifier

// Notify передаёт сообщение всем получателям.
func (f Fanout) Notify(kind domain.ToastKind, message string) {
	for _, n := range f {
		if n != nil {
			n.Notify(kind, message)
		}
	}
}

var (
	_ domain.Notifier = (*LogNotifier)(nil)
	_ domain.Notifier = (*Recorder)(nil)
	_ domain.Notifier = Fanout(nil)
)
