package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"marketplace-system/internal/api/middleware"
	"marketplace-system/internal/services"
	"marketplace-system/pkg/logger"
)

type BidHandler struct {
	engine *services.BiddingEngine
	log    logger.Logger
}

func NewBidHandler(engine *services.BiddingEngine, log logger.Logger) *BidHandler {
	return &BidHandler{
		engine: engine,
		log:    log,
	}
}

type PlaceBidRequest struct {
	ProductID string  `json:"productId"`
	Amount    float64 `json:"amount"`
}

type EnableBiddingRequest struct {
	StartingBid float64   `json:"startingBid"`
	BidEndTime  time.Time `json:"bidEndTime"`
}

func (h *BidHandler) PlaceBid(c echo.Context) error {
	var req PlaceBidRequest
	if err := c.Bind(&req); err != nil {
		h.log.Error("Failed to bind request", "error", err)
		return c.JSON(http.StatusBadRequest, Response{
			Message: "Invalid request body", Error: true,
		})
	}

	userID := middleware.UserID(c)
	bid, err := h.engine.PlaceBid(c.Request().Context(), req.ProductID, userID, req.Amount)
	if err != nil {
		h.log.Error("Failed to place bid",
			"listing_id", req.ProductID, "user_id", userID, "error", err)
		return respondError(c, err)
	}

	return respondOK(c, http.StatusCreated, "Bid placed successfully", bid)
}

func (h *BidHandler) GetProductBids(c echo.Context) error {
	productID := c.Param("productId")

	bids, err := h.engine.ListBidsForProduct(c.Request().Context(), productID)
	if err != nil {
		h.log.Error("Failed to list bids", "listing_id", productID, "error", err)
		return respondError(c, err)
	}

	return respondOK(c, http.StatusOK, "Bids retrieved successfully", bids)
}

func (h *BidHandler) GetUserBids(c echo.Context) error {
	userID := middleware.UserID(c)

	bids, err := h.engine.ListBidsForUser(c.Request().Context(), userID)
	if err != nil {
		h.log.Error("Failed to list user bids", "user_id", userID, "error", err)
		return respondError(c, err)
	}

	return respondOK(c, http.StatusOK, "Bids retrieved successfully", bids)
}

func (h *BidHandler) EnableBidding(c echo.Context) error {
	productID := c.Param("productId")

	var req EnableBiddingRequest
	if err := c.Bind(&req); err != nil {
		h.log.Error("Failed to bind request", "error", err)
		return c.JSON(http.StatusBadRequest, Response{
			Message: "Invalid request body", Error: true,
		})
	}

	userID := middleware.UserID(c)
	listing, err := h.engine.EnableBidding(c.Request().Context(),
		productID, userID, req.StartingBid, req.BidEndTime)
	if err != nil {
		h.log.Error("Failed to enable bidding",
			"listing_id", productID, "user_id", userID, "error", err)
		return respondError(c, err)
	}

	return respondOK(c, http.StatusOK, "Bidding enabled successfully", listing)
}
