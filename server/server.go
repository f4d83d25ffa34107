// Package server handles method calls from the application shell
package server

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/crypto/ssh"

	"inputbridge/metrics"
	"inputbridge/util"
)

// maxCallSize bounds a method call body; text beyond this is not a keystroke
// payload anyone means to type.
const maxCallSize = 1 << 20

// Server exposes a CallHandler over HTTPS to clients holding an authorized key.
type Server struct {
	calls   *CallHandler
	keys    *keyring
	metrics *metrics.Metrics
	log     *slog.Logger

	quitOnce sync.Once
	quit     chan struct{}
}

func newServer(calls *CallHandler, keys *keyring, m *metrics.Metrics, log *slog.Logger) *Server {
	return &Server{
		calls:   calls,
		keys:    keys,
		metrics: m,
		log:     log,
		quit:    make(chan struct{}),
	}
}

// Routes returns the bridge's HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get(util.RequestHealth, s.healthHandler)
	r.Method(http.MethodGet, util.RequestMetrics, s.metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Post(util.RequestCall, s.callHandler)
		r.Post(util.RequestQuit, s.quitHandler)
	})
	return r
}

// Quit is closed once a client asks the server to stop.
func (s *Server) Quit() <-chan struct{} {
	return s.quit
}

type Options struct {
	Port int
	// ConfigDir holds authorized_keys and the TLS certificate.
	ConfigDir string
	Calls     *CallHandler
	Metrics   *metrics.Metrics
	Log       *slog.Logger
}

// Serve starts the HTTPS server and blocks until ctx is done, a client sends
// quit, or the listener fails.
func Serve(ctx context.Context, opts Options) error {
	keys, err := loadKeyring(filepath.Join(opts.ConfigDir, "authorized_keys"), opts.Log)
	if err != nil {
		return fmt.Errorf("could not load authorized keys: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := keys.watch(ctx); err != nil {
		opts.Log.Warn("authorized keys will not reload on change", "err", err)
	}

	certPath := filepath.Join(opts.ConfigDir, "cert.pem")
	keyPath := filepath.Join(opts.ConfigDir, "key.pem")
	if err := generateSelfSignedCert(certPath, keyPath); err != nil {
		return fmt.Errorf("could not generate self-signed certificate: %w", err)
	}

	s := newServer(opts.Calls, keys, opts.Metrics, opts.Log)
	addr := fmt.Sprintf("0.0.0.0:%d", opts.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		select {
		case <-ctx.Done():
		case <-s.Quit():
			opts.Log.Info("shutting down server")
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	opts.Log.Info(util.ProgramName+" server listening", "addr", addr)
	if err := server.ListenAndServeTLS(certPath, keyPath); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		keyFingerprint := r.Header.Get(util.HeaderFingerprint)
		signatureB64 := r.Header.Get(util.HeaderSignature)

		if keyFingerprint == "" || signatureB64 == "" {
			http.Error(w, "Missing authentication headers", http.StatusUnauthorized)
			return
		}

		pubKey, ok := s.keys.lookup(keyFingerprint)
		if !ok {
			http.Error(w, "Unknown public key", http.StatusUnauthorized)
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, maxCallSize+1))
		if err != nil {
			http.Error(w, "Failed to read request body", http.StatusInternalServerError)
			return
		}
		if len(body) > maxCallSize {
			http.Error(w, "Request body too large", http.StatusRequestEntityTooLarge)
			return
		}

		// The body is consumed by the signature check, so put it back for the handler.
		r.Body = io.NopCloser(bytes.NewBuffer(body))

		hash := sha256.Sum256(body)

		signatureBytes, err := base64.StdEncoding.DecodeString(signatureB64)
		if err != nil {
			http.Error(w, "Invalid signature encoding", http.StatusBadRequest)
			return
		}

		sshSig := &ssh.Signature{}
		if err := ssh.Unmarshal(signatureBytes, sshSig); err != nil {
			http.Error(w, "Invalid SSH signature format", http.StatusBadRequest)
			return
		}

		if err := pubKey.Verify(hash[:], sshSig); err != nil {
			http.Error(w, "Signature verification failed", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) callHandler(w http.ResponseWriter, r *http.Request) {
	var call MethodCall
	if err := json.NewDecoder(r.Body).Decode(&call); err != nil {
		writeReply(w, Reply{Code: CodeInvalidArgument, Message: "Malformed method call: " + err.Error()}, s.log)
		return
	}

	reply := s.calls.Handle(r.Context(), call)
	writeReply(w, reply, s.log)
	if reply.OK() {
		s.log.Debug("call handled", "method", call.Method, "id", reply.ID)
	}
}

func (s *Server) quitHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	s.quitOnce.Do(func() { close(s.quit) })
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"version": util.GitHead,
	})
}

func writeReply(w http.ResponseWriter, reply Reply, log *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(reply.Status())
	if err := json.NewEncoder(w).Encode(reply); err != nil {
		log.Error("failed to write reply", "err", err)
	}
}

func generateSelfSignedCert(certPath, keyPath string) error {
	if _, err := os.Stat(certPath); err == nil {
		// Certificate already exists
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(certPath), 0700); err != nil {
		return fmt.Errorf("could not create cert directory: %w", err)
	}

	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return err
	}

	template := x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject: pkix.Name{
			Organization: []string{util.ProgramName},
		},
		NotBefore: time.Now(),
		NotAfter:  time.Now().Add(time.Hour * 24 * 365 * 10),

		KeyUsage:              x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
	}

	derBytes, err := x509.CreateCertificate(rand.Reader, &template, &template, &priv.PublicKey, priv)
	if err != nil {
		return err
	}

	certOut, err := os.Create(certPath)
	if err != nil {
		return err
	}
	defer certOut.Close()
	if err := pem.Encode(certOut, &pem.Block{Type: "CERTIFICATE", Bytes: derBytes}); err != nil {
		return err
	}

	keyOut, err := os.OpenFile(keyPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer keyOut.Close()
	return pem.Encode(keyOut, &pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(priv)})
}
