package websocket

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"marketplace-system/internal/domain"
	"marketplace-system/pkg/logger"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins in development
	},
}

// Handler upgrades watch requests into live bid streams. Connections are
// read-only from the client side apart from pings; bids go through the REST
// API and arrive here via the event relay.
type Handler struct {
	listings    domain.ListingRepository
	stateCache  domain.AuctionStateCache // optional
	connManager domain.ConnectionManager
	clock       domain.Clock
	log         logger.Logger
}

func NewHandler(listings domain.ListingRepository, stateCache domain.AuctionStateCache,
	connManager domain.ConnectionManager, clock domain.Clock, log logger.Logger) *Handler {
	return &Handler{
		listings:    listings,
		stateCache:  stateCache,
		connManager: connManager,
		clock:       clock,
		log:         log,
	}
}

func (h *Handler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	listingID := vars["listingID"]

	// Cached status short-circuits closed listings without a database read.
	// The listing row below stays authoritative for everything else.
	if h.stateCache != nil {
		if status, ok, err := h.stateCache.GetAuctionStatus(r.Context(), listingID); err == nil && ok {
			if status == domain.StatusEnded {
				http.Error(w, "bidding is not open on this listing", http.StatusForbidden)
				return
			}
		}
	}

	listing, err := h.listings.GetListing(r.Context(), listingID)
	if err != nil {
		h.log.Error("Failed to find listing", "error", err, "listing_id", listingID)
		http.Error(w, "listing not found", http.StatusNotFound)
		return
	}

	if !listing.IsOpenForBids(h.clock()) {
		h.log.Info("Rejected connection, bidding closed", "listing_id", listingID)
		http.Error(w, "bidding is not open on this listing", http.StatusForbidden)
		return
	}

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		http.Error(w, "user_id required", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("Failed to upgrade connection", "error", err)
		return
	}

	wsConn := NewConnection(conn, userID, listingID)

	if err := h.connManager.RegisterConnection(userID, listingID, wsConn); err != nil {
		h.log.Error("Failed to register connection", "error", err)
		conn.Close()
		return
	}

	go h.readLoop(wsConn, userID, listingID)
}

func (h *Handler) readLoop(conn *Connection, userID, listingID string) {
	defer func() {
		h.connManager.UnregisterConnection(userID, listingID)
		conn.Close()
	}()

	for {
		var msg map[string]interface{}
		if err := conn.conn.ReadJSON(&msg); err != nil {
			return
		}

		if msgType, ok := msg["type"].(string); ok && msgType == "ping" {
			conn.Send(map[string]string{"type": "pong"})
		}
	}
}

type Connection struct {
	conn      *websocket.Conn
	userID    string
	listingID string
}

func NewConnection(conn *websocket.Conn, userID, listingID string) *Connection {
	return &Connection{
		conn:      conn,
		userID:    userID,
		listingID: listingID,
	}
}

func (c *Connection) Send(message interface{}) error {
	return c.conn.WriteJSON(message)
}

func (c *Connection) Close() error {
	return c.conn.Close()
}

func (c *Connection) UserID() string {
	return c.userID
}

func (c *Connection) ListingID() string {
	return c.listingID
}
