package websocket

import (
	"sync"

	"marketplace-system/internal/domain"
	"marketplace-system/pkg/logger"
)

type ConnectionManager struct {
	connections map[string]map[string]domain.WebSocketConnection // listingID -> userID -> connection
	mutex       sync.RWMutex
	log         logger.Logger
}

func NewConnectionManager(log logger.Logger) *ConnectionManager {
	return &ConnectionManager{
		connections: make(map[string]map[string]domain.WebSocketConnection),
		log:         log,
	}
}

func (cm *ConnectionManager) RegisterConnection(userID, listingID string, conn domain.WebSocketConnection) error {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	if cm.connections[listingID] == nil {
		cm.connections[listingID] = make(map[string]domain.WebSocketConnection)
	}
	cm.connections[listingID][userID] = conn

	cm.log.Info("Connection registered", "user_id", userID, "listing_id", listingID)
	return nil
}

func (cm *ConnectionManager) UnregisterConnection(userID, listingID string) error {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	if listingConns, exists := cm.connections[listingID]; exists {
		delete(listingConns, userID)
		if len(listingConns) == 0 {
			delete(cm.connections, listingID)
		}
	}

	cm.log.Info("Connection unregistered", "user_id", userID, "listing_id", listingID)
	return nil
}

func (cm *ConnectionManager) BroadcastToListing(listingID string, message interface{}) error {
	connections := cm.connectionsForListing(listingID)

	for _, conn := range connections {
		if err := conn.Send(message); err != nil {
			cm.log.Error("Failed to send message", "user_id", conn.UserID(),
				"listing_id", listingID, "error", err)
			// Continue to other connections
		}
	}

	return nil
}

func (cm *ConnectionManager) CloseAndUnregisterConnections(listingID string) error {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	if listingConns, exists := cm.connections[listingID]; exists {
		for userID, conn := range listingConns {
			if err := conn.Close(); err != nil {
				cm.log.Error("Failed to close connection", "user_id", userID,
					"listing_id", listingID, "error", err)
			}
		}
		delete(cm.connections, listingID)
	}

	cm.log.Info("Connections closed for listing", "listing_id", listingID)
	return nil
}

func (cm *ConnectionManager) connectionsForListing(listingID string) []domain.WebSocketConnection {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	var connections []domain.WebSocketConnection
	for _, conn := range cm.connections[listingID] {
		connections = append(connections, conn)
	}
	return connections
}
