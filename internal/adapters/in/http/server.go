package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"ekanban/internal/core/application/usecases/commands"
	"ekanban/internal/core/application/usecases/queries"
	"ekanban/internal/core/domain/model/kernel"
	"ekanban/internal/core/domain/model/order"
	"ekanban/internal/core/domain/services"
	"ekanban/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

// FeedbackTTLSeconds is how long terminals keep a scan result on screen.
const FeedbackTTLSeconds = 3

// Role selects the routes a terminal exposes.
type Role string

const (
	RoleOperator   Role = "operator"
	RoleDispatcher Role = "dispatcher"
)

func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleOperator, RoleDispatcher:
		return r, nil
	default:
		return "", errs.NewValueIsInvalidErrorWithCause("role", fmt.Errorf("%q is not operator or dispatcher", s))
	}
}

type (
	OrderCreator interface {
		Handle(ctx context.Context, cmd commands.CreateOrderCommand) (commands.Confirmation, error)
	}

	OrderAdvancer interface {
		Handle(ctx context.Context, cmd commands.AdvanceOrderCommand) error
	}

	BoardReader interface {
		Handle(ctx context.Context, query queries.GetBoardQuery) (queries.GetBoardQueryResponse, error)
	}
)

// Server holds the use cases behind the HTTP API.
type Server struct {
	createOrderHandler  OrderCreator
	advanceOrderHandler OrderAdvancer
	getBoardHandler     BoardReader
	simulator           services.ScanSimulator
	stream              *BoardStream
	metrics             http.Handler
	logger              *slog.Logger
}

func NewServer(
	createOrderHandler OrderCreator,
	advanceOrderHandler OrderAdvancer,
	getBoardHandler BoardReader,
	simulator services.ScanSimulator,
	stream *BoardStream,
	metrics http.Handler,
	logger *slog.Logger,
) *Server {
	return &Server{
		createOrderHandler:  createOrderHandler,
		advanceOrderHandler: advanceOrderHandler,
		getBoardHandler:     getBoardHandler,
		simulator:           simulator,
		stream:              stream,
		metrics:             metrics,
		logger:              logger.With("component", "http"),
	}
}

// Register mounts the routes of role on e. The operator routes need the
// create handler; the dispatcher routes need the board, the stream and the
// advance handler.
func (s *Server) Register(e *echo.Echo, role Role) {
	e.GET("/health", s.Health)
	if s.metrics != nil {
		e.GET("/metrics", echo.WrapHandler(s.metrics))
	}

	api := e.Group("/api/v1")
	switch role {
	case RoleOperator:
		api.POST("/orders", s.CreateOrder)
		api.POST("/scans/simulate", s.SimulateScan)
	case RoleDispatcher:
		api.GET("/board", s.GetBoard)
		api.GET("/board/stream", s.stream.Handle)
		api.POST("/orders/:id/dispatch", s.DispatchOrder)
		api.POST("/orders/:id/deliver", s.DeliverOrder)
	}
}

func (s *Server) Health(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Healthy")
}

// CreateOrder handles POST /api/v1/orders, a manual or scanned card id.
func (s *Server) CreateOrder(ctx echo.Context) error {
	var req CreateOrderRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, feedbackError(http.StatusBadRequest, "Invalid request body"))
	}
	return s.createOrder(ctx, req.CardID)
}

// SimulateScan handles POST /api/v1/scans/simulate.
func (s *Server) SimulateScan(ctx echo.Context) error {
	return s.createOrder(ctx, s.simulator.Next())
}

func (s *Server) createOrder(ctx echo.Context, cardID string) error {
	cmd, err := commands.NewCreateOrderCommand(cardID)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, feedbackError(http.StatusBadRequest, "Invalid card id: "+err.Error()))
	}

	confirmation, err := s.createOrderHandler.Handle(ctx.Request().Context(), cmd)
	switch {
	case err == nil:
		return ctx.JSON(http.StatusCreated, newConfirmationResponse(confirmation))
	case errors.Is(err, commands.ErrCardNotFound):
		return ctx.JSON(http.StatusNotFound, feedbackError(http.StatusNotFound, "Card "+cmd.CardID()+" not found"))
	default:
		s.logger.ErrorContext(ctx.Request().Context(), "Order creation failed", "card_id", cmd.CardID(), "error", err)
		return ctx.JSON(http.StatusBadGateway, feedbackError(http.StatusBadGateway, "Failed to create order"))
	}
}

// GetBoard handles GET /api/v1/board.
func (s *Server) GetBoard(ctx echo.Context) error {
	board, err := s.getBoardHandler.Handle(ctx.Request().Context(), queries.NewGetBoardQuery())
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, Error{
			Code:    http.StatusInternalServerError,
			Message: "Failed to read board",
		})
	}
	return ctx.JSON(http.StatusOK, newBoardResponse(board))
}

// DispatchOrder handles POST /api/v1/orders/:id/dispatch.
func (s *Server) DispatchOrder(ctx echo.Context) error {
	return s.advanceOrder(ctx, order.InTransit)
}

// DeliverOrder handles POST /api/v1/orders/:id/deliver.
func (s *Server) DeliverOrder(ctx echo.Context) error {
	return s.advanceOrder(ctx, order.Delivered)
}

// advanceOrder answers 202 once the store accepted the write. The board
// changes only when the feed delivers it.
func (s *Server) advanceOrder(ctx echo.Context, target order.Status) error {
	id, err := kernel.UUIDFromString(ctx.Param("id"))
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, Error{Code: http.StatusBadRequest, Message: "Invalid order id"})
	}

	cmd, err := commands.NewAdvanceOrderCommand(id, target)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, Error{Code: http.StatusBadRequest, Message: err.Error()})
	}

	err = s.advanceOrderHandler.Handle(ctx.Request().Context(), cmd)
	switch {
	case err == nil:
		return ctx.JSON(http.StatusAccepted, AdvanceOrderResponse{OrderID: id.String(), Requested: target.String()})
	case errors.Is(err, commands.ErrOrderNotFound):
		return ctx.JSON(http.StatusNotFound, Error{Code: http.StatusNotFound, Message: "Order not found"})
	case errors.Is(err, order.ErrInvalidTransition):
		return ctx.JSON(http.StatusConflict, Error{Code: http.StatusConflict, Message: err.Error()})
	default:
		s.logger.ErrorContext(ctx.Request().Context(), "Order status update failed",
			"order_id", id.String(), "target", target.String(), "error", err)
		return ctx.JSON(http.StatusBadGateway, Error{Code: http.StatusBadGateway, Message: "Failed to update order"})
	}
}
