// Package challenge verifica respuestas de reCAPTCHA contra el servicio de
// Google (siteverify).
package challenge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dropDatabas3/talkauth/internal/observability/logger"
	"github.com/tidwall/gjson"
)

const (
	// HeaderName es el header donde el cliente manda la respuesta del widget.
	HeaderName = "X-Recaptcha-Response"

	DefaultVerifyURL = "https://www.google.com/recaptcha/api/siteverify"
	DefaultTimeout   = 10 * time.Second
)

// ErrService el servicio de verificación falló (red, status, body). No es
// culpa del usuario y no cuenta como intento fallido.
var ErrService = errors.New("challenge verification service error")

// Request es la respuesta del challenge asociada a un request entrante.
type Request struct {
	Response string
	RemoteIP string
}

// Present indica si el cliente mandó una respuesta.
func (r Request) Present() bool { return r.Response != "" }

// FromHTTP extrae la respuesta del header y la IP del cliente. Con
// trustProxy la IP sale de X-Forwarded-For; si no, de RemoteAddr.
func FromHTTP(r *http.Request, trustProxy bool) Request {
	return Request{
		Response: strings.TrimSpace(r.Header.Get(HeaderName)),
		RemoteIP: ClientIP(r, trustProxy),
	}
}

// ClientIP devuelve la IP del peer. Detrás de un proxy de confianza usa la
// última entrada de X-Forwarded-For, que es la que agregó el proxy; las
// anteriores las controla el cliente.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
			parts := strings.Split(xf, ",")
			if ip := strings.TrimSpace(parts[len(parts)-1]); ip != "" {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}

// Verifier consulta siteverify. Sin reintentos: cada llamada es un único POST.
type Verifier struct {
	secret   string
	endpoint string
	http     *http.Client
}

// Config del verifier.
type Config struct {
	Secret    string
	VerifyURL string
	Timeout   time.Duration
}

func New(cfg Config) *Verifier {
	if cfg.VerifyURL == "" {
		cfg.VerifyURL = DefaultVerifyURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Verifier{
		secret:   cfg.Secret,
		endpoint: cfg.VerifyURL,
		http:     &http.Client{Timeout: cfg.Timeout},
	}
}

// Verify retorna (true, nil) si el servicio confirma la respuesta, (false,
// nil) si la rechaza, y ErrService ante cualquier falla del servicio.
func (v *Verifier) Verify(ctx context.Context, req Request) (bool, error) {
	log := logger.From(ctx).With(logger.Component("challenge"), logger.Op("Verify"))

	if !req.Present() {
		return false, nil
	}

	form := url.Values{}
	form.Set("secret", v.secret)
	form.Set("response", req.Response)
	if req.RemoteIP != "" {
		form.Set("remoteip", req.RemoteIP)
	}

	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, v.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrService, err)
	}
	hreq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	hreq.Header.Set("Accept", "application/json")

	resp, err := v.http.Do(hreq)
	if err != nil {
		log.Warn("verification request failed", logger.Err(err))
		return false, fmt.Errorf("%w: %v", ErrService, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		log.Warn("verification service returned non-2xx", logger.Status(resp.StatusCode))
		return false, fmt.Errorf("%w: http %d", ErrService, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return false, fmt.Errorf("%w: read body: %v", ErrService, err)
	}
	if !gjson.ValidBytes(body) {
		return false, fmt.Errorf("%w: invalid json response", ErrService)
	}

	success := gjson.GetBytes(body, "success")
	if !success.Exists() {
		return false, fmt.Errorf("%w: response without success field", ErrService)
	}
	if !success.Bool() {
		log.Debug("challenge rejected",
			logger.String("error_codes", gjson.GetBytes(body, "error-codes").Raw))
		return false, nil
	}
	return true, nil
}
