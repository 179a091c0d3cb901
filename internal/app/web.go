package app

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gorilla/websocket"

	"github.com/relabs-tech/visual_inertial/internal/config"
	"github.com/relabs-tech/visual_inertial/internal/landmarks"
	"github.com/relabs-tech/visual_inertial/internal/pose"
)

// webState caches the latest values seen on the MQTT topics for the
// pull API, and fans fused-pose updates out to websocket clients.
type webState struct {
	mu            sync.RWMutex
	pose          pose.Pose
	havePose      bool
	fused         pose.Pose
	haveFused     bool
	marks         []landmarks.Landmark
	haveLandmarks bool

	clientsMu sync.Mutex
	clients   map[*websocket.Conn]struct{}
}

var upgrader = websocket.Upgrader{
	// The viewer is served from this process; same-origin is enough.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// RunWeb subscribes to the tracker topics and serves a JSON API, a
// live websocket pose stream, and static files from ./web.
func RunWeb() error {
	cfg := config.Get()
	state := &webState{clients: make(map[*websocket.Conn]struct{})}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDWeb)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("web: connected to MQTT broker at %s", cfg.MQTTBroker)

	poseToken := client.Subscribe(cfg.TopicPose, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var p pose.Pose
		if err := json.Unmarshal(msg.Payload(), &p); err != nil {
			log.Printf("web: pose unmarshal error: %v", err)
			return
		}
		state.mu.Lock()
		state.pose = p
		state.havePose = true
		state.mu.Unlock()
	})
	poseToken.Wait()
	if poseToken.Error() != nil {
		return poseToken.Error()
	}

	fusedToken := client.Subscribe(cfg.TopicPoseFused, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var p pose.Pose
		if err := json.Unmarshal(msg.Payload(), &p); err != nil {
			log.Printf("web: fused pose unmarshal error: %v", err)
			return
		}
		state.mu.Lock()
		state.fused = p
		state.haveFused = true
		state.mu.Unlock()
		state.broadcast(msg.Payload())
	})
	fusedToken.Wait()
	if fusedToken.Error() != nil {
		return fusedToken.Error()
	}

	lmToken := client.Subscribe(cfg.TopicLandmarks, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var marks []landmarks.Landmark
		if err := json.Unmarshal(msg.Payload(), &marks); err != nil {
			log.Printf("web: landmarks unmarshal error: %v", err)
			return
		}
		state.mu.Lock()
		state.marks = marks
		state.haveLandmarks = true
		state.mu.Unlock()
	})
	lmToken.Wait()
	if lmToken.Error() != nil {
		return lmToken.Error()
	}
	log.Println("web: subscribed to tracker topics")

	http.HandleFunc("/api/pose", func(w http.ResponseWriter, r *http.Request) {
		state.mu.RLock()
		defer state.mu.RUnlock()
		if !state.havePose {
			http.Error(w, "no data yet", http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, map[string]pose.Pose{"visual": state.pose, "fused": state.fused})
	})

	http.HandleFunc("/api/landmarks", func(w http.ResponseWriter, r *http.Request) {
		state.mu.RLock()
		defer state.mu.RUnlock()
		if !state.haveLandmarks {
			http.Error(w, "no data yet", http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, state.marks)
	})

	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("web: websocket upgrade error: %v", err)
			return
		}
		state.addClient(conn)
	})

	fs := http.FileServer(http.Dir("web"))
	http.Handle("/", fs)

	addr := fmt.Sprintf(":%d", cfg.WebServerPort)
	log.Printf("web: server listening on %s", addr)
	return http.ListenAndServe(addr, nil)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("web: json encode error: %v", err)
	}
}

func (s *webState) addClient(conn *websocket.Conn) {
	s.clientsMu.Lock()
	s.clients[conn] = struct{}{}
	s.clientsMu.Unlock()

	// Reader loop exists only to notice the close.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.removeClient(conn)
				return
			}
		}
	}()
}

func (s *webState) removeClient(conn *websocket.Conn) {
	s.clientsMu.Lock()
	delete(s.clients, conn)
	s.clientsMu.Unlock()
	conn.Close()
}

// broadcast pushes a payload to every connected websocket client,
// dropping clients whose writes fail.
func (s *webState) broadcast(payload []byte) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	for conn := range s.clients {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			delete(s.clients, conn)
			conn.Close()
		}
	}
}
