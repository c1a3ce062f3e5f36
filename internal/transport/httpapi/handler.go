package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/service/catalog"
	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/service/customers"
	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/service/dashboard"
	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/service/idempotency"
	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/service/notifications"
	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/service/orders"
	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/service/reports"
	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/service/staff"
)

const (
	// HeaderIdempotencyKey — заголовок ключа идемпотентности для POST /api/orders.
	HeaderIdempotencyKey = "Idempotency-Key"
	// HeaderIdempotencyReplayed выставляется, если ответ взят из хранилища.
	HeaderIdempotencyReplayed = "Idempotency-Replayed"

	maxBodyBytes = 1 << 20
)

// Services — сервисы, которые обслуживает API.
type Services struct {
	Menu          *catalog.Service
	Orders        *orders.Service
	Staff         *staff.Service
	Customers     *customers.Service
	Notifications *notifications.Service
	Dashboard     *dashboard.Service
	Reports       *reports.Builder
	Idempotency   *idempotency.Executor
}

// Handler держит сервисы и logger для HTTP-обработчиков.
type Handler struct {
	svc    Services
	logger *log.Entry
}

// NewHandler создаёт Handler. Без Idempotency заголовок Idempotency-Key игнорируется.
func NewHandler(svc Services, logger *log.Entry) *Handler {
	if logger == nil {
		logger = log.WithField("component", "httpapi")
	}
	if svc.Idempotency == nil {
		svc.Idempotency = idempotency.NewExecutor(nil)
	}
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, body := errorBody(err)
	if status == http.StatusInternalServerError {
		h.logger.WithError(err).WithFields(log.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).Error("request failed")
	}
	writeJSON(w, status, body)
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, badRequest("body", fmt.Sprintf("read request body: %v", err))
	}
	return body, nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	body, err := readBody(w, r)
	if err != nil {
		return err
	}
	return unmarshalBody(body, dst)
}

func unmarshalBody(body []byte, dst any) error {
	if len(strings.TrimSpace(string(body))) == 0 {
		return badRequest("body", "request body is required")
	}
	if err := json.Unmarshal(body, dst); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			return badRequest("body", "malformed JSON")
		}
		return badRequest("body", err.Error())
	}
	return nil
}
