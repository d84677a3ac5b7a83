package handlers

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/sirupsen/logrus"

	userapp "github.com/oksasatya/user-orders-service/internal/application"
	"github.com/oksasatya/user-orders-service/pkg/response"
	"github.com/oksasatya/user-orders-service/pkg/validation"
)

const (
	msgUserNotFound  = "User not found"
	descUserNotFound = "User not found!"
)

type UserHandler struct {
	Svc    *userapp.Service
	Logger *logrus.Logger
}

func NewUserHandler(svc *userapp.Service, logger *logrus.Logger) *UserHandler {
	validation.Init()
	return &UserHandler{Svc: svc, Logger: logger}
}

// CreateUser POST /users
func (h *UserHandler) CreateUser(c *gin.Context) {
	req, err := bindCreateUser(c)
	if err != nil {
		h.fail(c, err, nil)
		return
	}

	u, err := h.Svc.CreateUser(c.Request.Context(), req.toEntity())
	if err != nil {
		h.fail(c, err, *req.UserID)
		return
	}
	response.Success(c, http.StatusOK, toUserResponse(u), "User created successfully!")
}

// GetAllUsers GET /users
func (h *UserHandler) GetAllUsers(c *gin.Context) {
	users, err := h.Svc.GetAllUsers(c.Request.Context())
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	items := make([]userListItem, 0, len(users))
	for _, u := range users {
		items = append(items, toListItem(u))
	}
	response.Success(c, http.StatusOK, items, "Users fetched successfully!")
}

// GetUser GET /users/:userId
func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := h.userID(c)
	if !ok {
		return
	}
	u, err := h.Svc.GetUser(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err, id)
		return
	}
	response.Success(c, http.StatusOK, toUserResponse(u), "User fetched successfully!")
}

// UpdateUser PUT /users/:userId
func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, ok := h.existingUserID(c)
	if !ok {
		return
	}

	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, validation.FromError(err), id)
		return
	}
	if req.UserID != nil && *req.UserID != id {
		h.fail(c, validation.New("userId", "cannot be changed"), id)
		return
	}

	u, err := h.Svc.UpdateUser(c.Request.Context(), id, req.toPatch())
	if err != nil {
		h.fail(c, err, id)
		return
	}
	response.Success(c, http.StatusOK, toUserResponse(u), "User updated successfully!")
}

// DeleteUser DELETE /users/:userId
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, ok := h.existingUserID(c)
	if !ok {
		return
	}
	if _, err := h.Svc.DeleteUser(c.Request.Context(), id); err != nil {
		h.fail(c, err, id)
		return
	}
	response.Success[any](c, http.StatusOK, nil, "User deleted successfully!")
}

// AppendOrder PUT /users/:userId/orders
func (h *UserHandler) AppendOrder(c *gin.Context) {
	id, ok := h.existingUserID(c)
	if !ok {
		return
	}

	var req orderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, validation.FromError(err), id)
		return
	}

	if err := h.Svc.AppendOrder(c.Request.Context(), id, req.toEntity()); err != nil {
		h.fail(c, err, id)
		return
	}
	response.Success[any](c, http.StatusOK, nil, "Order created successfully!")
}

// ListOrders GET /users/:userId/orders
func (h *UserHandler) ListOrders(c *gin.Context) {
	id, ok := h.existingUserID(c)
	if !ok {
		return
	}
	orders, err := h.Svc.ListOrders(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err, id)
		return
	}
	response.Success(c, http.StatusOK, ordersResponse{Orders: toOrders(orders)}, "Order fetched successfully!")
}

// TotalOrderValue GET /users/:userId/orders/total-price
func (h *UserHandler) TotalOrderValue(c *gin.Context) {
	id, ok := h.existingUserID(c)
	if !ok {
		return
	}
	total, err := h.Svc.TotalOrderValue(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err, id)
		return
	}
	response.Success(c, http.StatusOK, totalPriceResponse{TotalPrice: roundPrice(total)}, "Total price calculated successfully!")
}

// Search GET /users/search?q=&size=
// size must be an integer when given; values outside 1..50 fall back to 10.
func (h *UserHandler) Search(c *gin.Context) {
	size := 10
	if raw, ok := c.GetQuery("size"); ok {
		n, err := strconv.Atoi(raw)
		if err != nil {
			h.fail(c, validation.New("size", "must be an integer"), nil)
			return
		}
		size = n
	}
	hits, err := h.Svc.SearchUsers(c.Request.Context(), c.Query("q"), size)
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	response.Success(c, http.StatusOK, hits, "Users searched successfully!")
}

// bindCreateUser decodes {"user": {...}} or a bare user object and validates it.
func bindCreateUser(c *gin.Context) (*createUserRequest, error) {
	body, err := c.GetRawData()
	if err != nil {
		return nil, err
	}

	var env createUserEnvelope
	if err := binding.JSON.BindBody(body, &env); err != nil {
		return nil, validation.FromError(err)
	}
	if env.User != nil {
		return env.User, nil
	}

	var req createUserRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, validation.FromError(err)
	}
	if err := validation.Struct(&req); err != nil {
		return nil, err
	}
	return &req, nil
}

// userID parses :userId. An id that cannot name a stored user is answered with 404.
func (h *UserHandler) userID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("userId"), 10, 64)
	if err != nil || id <= 0 {
		response.NotFound(c, msgUserNotFound, descUserNotFound)
		return 0, false
	}
	return id, true
}

// existingUserID is userID plus the existence precondition.
func (h *UserHandler) existingUserID(c *gin.Context) (int64, bool) {
	id, ok := h.userID(c)
	if !ok {
		return 0, false
	}
	exists, err := h.Svc.IsUserExists(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err, id)
		return 0, false
	}
	if !exists {
		response.NotFound(c, msgUserNotFound, descUserNotFound)
		return 0, false
	}
	return id, true
}

func (h *UserHandler) fail(c *gin.Context, err error, userID any) {
	if errors.Is(err, userapp.ErrUserNotFound) {
		response.NotFound(c, msgUserNotFound, descUserNotFound)
		return
	}

	body := response.ErrorBody{Code: http.StatusInternalServerError, Description: err.Error()}
	var ve *validation.Error
	if errors.As(err, &ve) {
		body.Description = "Validation failed"
		body.Details = ve.Details
	}

	if h.Logger != nil {
		h.Logger.WithError(err).WithFields(logrus.Fields{
			"request_id": c.GetString("request_id"),
			"user_id":    userID,
			"route":      c.FullPath(),
		}).Error("request failed")
	}
	response.Error(c, http.StatusInternalServerError, err.Error(), body)
}

func roundPrice(v float64) float64 {
	return math.Round(v*100) / 100
}
