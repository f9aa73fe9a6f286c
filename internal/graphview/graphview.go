// Package graphview serves a small websocket-pushed visualization of the
// include graph, for the "graph" workspace/executeCommand. It is grounded
// on internal/graph/graph.go's node/link broadcast model, adapted from that
// package's ad-hoc global state to a Server bound to one internal/docgraph
// instance and fed by docgraph.Event instead of a bespoke cache.Event union.
package graphview

import (
	"encoding/json"
	"log"
	"net"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/NorthIsUp/awk-language-server/internal/docgraph"
)

// Node is one document in the visualization.
type Node struct {
	ID     int    `json:"id"`
	URI    string `json:"uri"`
	Grayed bool   `json:"grayed"`
}

// Link is a directed include edge, source includes target.
type Link struct {
	Source int `json:"source"`
	Target int `json:"target"`
}

// GraphData is a full snapshot.
type GraphData struct {
	Nodes []Node `json:"nodes"`
	Links []Link `json:"links"`
}

// IncrementalMessage is one websocket frame: either a full snapshot ("init")
// or a single incremental change.
type IncrementalMessage struct {
	Op    string     `json:"op"`
	Graph *GraphData `json:"graph,omitempty"`
	Node  *Node      `json:"node,omitempty"`
	Link  *Link      `json:"link,omitempty"`
}

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// Server owns the id-assignment table and the set of connected websocket
// clients for one graph.
type Server struct {
	graph *docgraph.Graph

	mu      sync.Mutex
	ids     map[string]int
	nextID  int

	clientsMu sync.Mutex
	clients   map[*websocket.Conn]bool
}

// NewServer returns a graphview server bound to graph, not yet listening.
func NewServer(g *docgraph.Graph) *Server {
	return &Server{
		graph:   g,
		ids:     make(map[string]int),
		clients: make(map[*websocket.Conn]bool),
	}
}

func (s *Server) idFor(uri string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.ids[uri]; ok {
		return id
	}
	s.nextID++
	s.ids[uri] = s.nextID
	return s.nextID
}

// Listen starts the HTTP and websocket server on addr (":0" for any free
// port) and returns the URL the client should open. It also starts the
// background loop that turns graph.Subscribe events into broadcasts.
func (s *Server) Listen(addr string) (string, error) {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return "", err
	}
	actual := l.Addr().String()

	mux := http.NewServeMux()
	mux.HandleFunc("/", serveIndex)
	mux.HandleFunc("/ws", s.handleWS)

	go func() {
		if err := http.Serve(l, mux); err != nil {
			log.Printf("graphview: server error: %v", err)
		}
	}()
	go s.run()

	return "http://" + actual + "/", nil
}

// run drains graph.Subscribe forever, translating each docgraph.Event into
// an incremental broadcast.
func (s *Server) run() {
	events, cancel := s.graph.Subscribe()
	defer cancel()
	for evt := range events {
		switch evt.Type {
		case docgraph.DocumentCreated:
			node := Node{ID: s.idFor(evt.URI), URI: evt.URI, Grayed: s.graph.IsPlaceholder(evt.URI)}
			s.broadcast(IncrementalMessage{Op: "addNode", Node: &node})
		case docgraph.DocumentRemoved:
			node := Node{ID: s.idFor(evt.URI)}
			s.broadcast(IncrementalMessage{Op: "deleteNode", Node: &node})
		case docgraph.EdgeAdded:
			link := Link{Source: s.idFor(evt.URI), Target: s.idFor(evt.Peer)}
			s.broadcast(IncrementalMessage{Op: "addLink", Link: &link})
		case docgraph.EdgeRemoved:
			link := Link{Source: s.idFor(evt.URI), Target: s.idFor(evt.Peer)}
			s.broadcast(IncrementalMessage{Op: "deleteLink", Link: &link})
		}
	}
}

// snapshot builds the current full graph, assigning ids to any URI seen for
// the first time.
func (s *Server) snapshot() GraphData {
	var data GraphData
	for _, doc := range s.graph.All() {
		data.Nodes = append(data.Nodes, Node{ID: s.idFor(doc.URI), URI: doc.URI, Grayed: s.graph.IsPlaceholder(doc.URI)})
		for target := range doc.Includes {
			data.Links = append(data.Links, Link{Source: s.idFor(doc.URI), Target: s.idFor(target)})
		}
	}
	return data
}

func (s *Server) broadcast(msg IncrementalMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("graphview: marshal error: %v", err)
		return
	}
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	for conn := range s.clients {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			conn.Close()
			delete(s.clients, conn)
		}
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("graphview: upgrade error: %v", err)
		return
	}
	s.clientsMu.Lock()
	s.clients[conn] = true
	s.clientsMu.Unlock()
	defer func() {
		s.clientsMu.Lock()
		delete(s.clients, conn)
		s.clientsMu.Unlock()
		conn.Close()
	}()

	state := s.snapshot()
	init := IncrementalMessage{Op: "init", Graph: &state}
	if data, err := json.Marshal(init); err == nil {
		_ = conn.WriteMessage(websocket.TextMessage, data)
	}

	for {
		if _, _, err := conn.NextReader(); err != nil {
			break
		}
	}
}

// indexPage is a minimal force-graph viewer, self-contained so the module
// needs no embedded static asset directory.
const indexPage = `<!doctype html>
<html><head><title>awk include graph</title></head>
<body>
<pre id="log">connecting...</pre>
<script>
  const log = document.getElementById("log");
  const ws = new WebSocket("ws://" + location.host + "/ws");
  ws.onmessage = (ev) => { log.textContent = ev.data; };
  ws.onclose = () => { log.textContent = "disconnected"; };
</script>
</body></html>`

func serveIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(indexPage))
}
