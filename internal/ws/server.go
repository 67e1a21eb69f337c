package ws

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/LamGC/Auto-Musician/internal/config"
	"github.com/LamGC/Auto-Musician/internal/login"
	"github.com/LamGC/Auto-Musician/internal/sysinfo"
	"github.com/gorilla/websocket"
)

type Server struct {
	monitor        *login.Monitor
	pagesDir       string
	allowedOrigins map[string]bool
	allowedHosts   map[string]bool
}

func NewServer(cfg *config.Config, monitor *login.Monitor) *Server {
	s := &Server{
		monitor:        monitor,
		pagesDir:       cfg.Server.PagesDir,
		allowedOrigins: make(map[string]bool),
		allowedHosts:   make(map[string]bool),
	}

	for _, origin := range cfg.Server.AllowedOrigins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		s.allowedOrigins[trimmed] = true
		if parsed, err := url.Parse(trimmed); err == nil && parsed.Host != "" {
			s.allowedHosts[parsed.Host] = true
		}
	}

	return s
}

func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/login/createLoginSession", s.handleCreateLoginSession)
	mux.HandleFunc("/api/login/check", s.handleLoginCheck)
	mux.HandleFunc("/api/status", s.handleStatus)

	if s.pagesDir != "" {
		log.Printf("Serving pages from: %s", s.pagesDir)
		mux.Handle("/", http.FileServer(http.Dir(s.pagesDir)))
	}
}

func (s *Server) handleCreateLoginSession(w http.ResponseWriter, r *http.Request) {
	resp, err := s.monitor.CreateSession(r.Context(), nil)
	if err != nil {
		log.Printf("Login session creation failed: %v", err)
		http.Error(w, "login session creation failed", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// handleLoginCheck upgrades the connection and attaches it as an observer
// of the login session named by the id query parameter. The first frame is
// always an attach acknowledgement; rejected observers are acked negative
// and disconnected.
func (s *Server) handleLoginCheck(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		CheckOrigin: s.checkOrigin,
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade error: %v", err)
		return
	}

	obs := newObserver(conn)

	idParam := r.URL.Query().Get("id")
	idNum, err := strconv.ParseUint(idParam, 10, 32)
	if err != nil {
		s.ack(obs, false, "Bad request parameters.")
		obs.Close()
		return
	}
	handle := login.Handle(idNum)

	if !s.monitor.HasSession(handle) {
		log.Printf("Observer attach rejected (id: %s): unknown session", idParam)
		s.ack(obs, false, "Login session not found.")
		obs.Close()
		return
	}

	// Ack before attaching: results start flowing the moment the observer
	// is attached, and the ack must stay the first frame on the wire.
	s.ack(obs, true, "Accepted, waiting for return.")

	done, err := s.monitor.AttachObserver(handle, obs)
	if err != nil {
		// The session concluded between the check and the attach.
		obs.Close()
		return
	}
	log.Printf("Observer attached for login handle %s (%s)", idParam, r.RemoteAddr)

	// Drain client frames so a disconnect is noticed; observers never
	// send anything meaningful after the attach.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				obs.markDead()
				return
			}
		}
	}()

	<-done
	obs.Close()
}

func (s *Server) ack(obs *observer, confirm bool, message string) {
	payload, err := json.Marshal(login.AttachAck{Confirm: confirm, Message: message})
	if err != nil {
		return
	}
	if err := obs.Send(payload); err != nil {
		log.Printf("Attach ack delivery failed: %v", err)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := struct {
		*sysinfo.Status
		ActiveLogins int `json:"activeLogins"`
	}{
		Status:       sysinfo.Snapshot(),
		ActiveLogins: s.monitor.ActiveSessions(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(status)
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	if len(s.allowedOrigins) > 0 {
		if s.allowedOrigins[origin] {
			return true
		}
		if parsed, err := url.Parse(origin); err == nil && parsed.Host != "" {
			return s.allowedHosts[parsed.Host]
		}
		return false
	}

	parsed, err := url.Parse(origin)
	if err != nil {
		return false
	}

	host := parsed.Host
	if host == "" {
		return false
	}

	if host == r.Host {
		return true
	}

	if strings.HasPrefix(host, "localhost:") || host == "localhost" {
		return true
	}
	if strings.HasPrefix(host, "127.0.0.1:") || host == "127.0.0.1" {
		return true
	}
	if strings.HasPrefix(host, "[::1]:") || host == "::1" {
		return true
	}

	return false
}

func ListenAndServe(host string, port int, mux *http.ServeMux) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	log.Printf("Server listening on %s", addr)
	return http.ListenAndServe(addr, mux)
}
