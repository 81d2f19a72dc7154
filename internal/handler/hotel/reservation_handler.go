package hotel

import (
	"github.com/gin-gonic/gin"

	"github.com/dumeirei/hotel-inventory-backend/internal/common/handler"
	"github.com/dumeirei/hotel-inventory-backend/internal/common/response"
	"github.com/dumeirei/hotel-inventory-backend/internal/models"
	hotelService "github.com/dumeirei/hotel-inventory-backend/internal/service/hotel"
)

// CreateReservationBody 创建预订请求体
type CreateReservationBody struct {
	RoomNo          string  `json:"room_no" binding:"required"`
	CheckInDate     string  `json:"check_in_date" binding:"required"`
	CheckOutDate    string  `json:"check_out_date" binding:"required"`
	GuestCount      int     `json:"guest_count" binding:"required"`
	GuestName       string  `json:"guest_name" binding:"required,max=100"`
	GuestEmail      *string `json:"guest_email" binding:"omitempty,email"`
	GuestMobile     string  `json:"guest_mobile" binding:"required,max=20"`
	SpecialRequests *string `json:"special_requests" binding:"omitempty,max=500"`
}

// UpdateReservationBody 更新预订请求体，只应用非空字段
type UpdateReservationBody struct {
	CheckInDate     *string `json:"check_in_date"`
	CheckOutDate    *string `json:"check_out_date"`
	GuestCount      *int    `json:"guest_count"`
	GuestName       *string `json:"guest_name" binding:"omitempty,max=100"`
	GuestEmail      *string `json:"guest_email" binding:"omitempty,email"`
	GuestMobile     *string `json:"guest_mobile" binding:"omitempty,max=20"`
	SpecialRequests *string `json:"special_requests" binding:"omitempty,max=500"`
	Status          *string `json:"status"`
}

// MarkCheckedInBody 关联入住记录请求体
type MarkCheckedInBody struct {
	CheckInID int64 `json:"check_in_id" binding:"required"`
}

// ListReservations 获取预订列表
// @Summary 获取预订列表
// @Tags 预订
// @Produce json
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Param room_id query int false "房间ID"
// @Param status query string false "预订状态"
// @Param guest_name query string false "预订人"
// @Success 200 {object} response.Response{data=response.PageData{list=[]models.Reservation}}
// @Router /api/v1/reservations [get]
func (h *Handler) ListReservations(c *gin.Context) {
	p := handler.BindPagination(c)
	roomID, ok := handler.ParseQueryID(c, "room_id", "房间")
	if !ok {
		return
	}

	filters := make(map[string]interface{})
	if roomID != nil {
		filters["room_id"] = *roomID
	}
	if status := c.Query("status"); status != "" {
		filters["status"] = models.ReservationStatus(status)
	}
	if guestName := c.Query("guest_name"); guestName != "" {
		filters["guest_name"] = guestName
	}

	reservations, total, err := h.reservations.List(c.Request.Context(), p.GetOffset(), p.GetLimit(), filters)
	handler.MustSucceedPage(c, err, reservations, total, p.Page, p.PageSize)
}

// CreateReservation 创建预订
// @Summary 创建预订
// @Tags 预订
// @Accept json
// @Produce json
// @Param body body CreateReservationBody true "预订信息"
// @Success 201 {object} response.Response{data=models.Reservation}
// @Router /api/v1/reservations [post]
func (h *Handler) CreateReservation(c *gin.Context) {
	var body CreateReservationBody
	if !handler.BindJSON(c, &body) {
		return
	}
	checkInDate, err := handler.ParseDate(body.CheckInDate)
	if handler.HandleError(c, err) {
		return
	}
	checkOutDate, err := handler.ParseDate(body.CheckOutDate)
	if handler.HandleError(c, err) {
		return
	}

	reservation, err := h.reservations.Create(c.Request.Context(), &hotelService.CreateReservationRequest{
		RoomNo:          body.RoomNo,
		CheckInDate:     checkInDate,
		CheckOutDate:    checkOutDate,
		GuestCount:      body.GuestCount,
		GuestName:       body.GuestName,
		GuestEmail:      body.GuestEmail,
		GuestMobile:     body.GuestMobile,
		SpecialRequests: body.SpecialRequests,
	})
	if handler.HandleError(c, err) {
		return
	}
	response.Created(c, reservation)
}

// ListUpcomingReservations 获取即将入住的预订
// @Summary 获取即将入住的预订
// @Tags 预订
// @Produce json
// @Success 200 {object} response.Response{data=[]models.Reservation}
// @Router /api/v1/reservations/upcoming [get]
func (h *Handler) ListUpcomingReservations(c *gin.Context) {
	reservations, err := h.reservations.ListUpcoming(c.Request.Context())
	handler.MustSucceed(c, err, reservations)
}

// ListReservationsByStatus 按状态获取预订
// @Summary 按状态获取预订
// @Tags 预订
// @Produce json
// @Param status path string true "预订状态"
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Success 200 {object} response.Response{data=response.PageData{list=[]models.Reservation}}
// @Router /api/v1/reservations/status/{status} [get]
func (h *Handler) ListReservationsByStatus(c *gin.Context) {
	p := handler.BindPagination(c)
	status := models.ReservationStatus(c.Param("status"))

	reservations, total, err := h.reservations.ListByStatus(c.Request.Context(), status, p.GetOffset(), p.GetLimit())
	handler.MustSucceedPage(c, err, reservations, total, p.Page, p.PageSize)
}

// GetReservationByNumber 按预订号获取预订
// @Summary 按预订号获取预订
// @Tags 预订
// @Produce json
// @Param reservation_no path string true "预订号"
// @Success 200 {object} response.Response{data=models.Reservation}
// @Router /api/v1/reservations/number/{reservation_no} [get]
func (h *Handler) GetReservationByNumber(c *gin.Context) {
	reservation, err := h.reservations.GetByNumber(c.Request.Context(), c.Param("reservation_no"))
	handler.MustSucceed(c, err, reservation)
}

// GetReservation 获取预订详情
// @Summary 获取预订详情
// @Tags 预订
// @Produce json
// @Param id path int true "预订ID"
// @Success 200 {object} response.Response{data=models.Reservation}
// @Router /api/v1/reservations/{id} [get]
func (h *Handler) GetReservation(c *gin.Context) {
	id, ok := handler.ParseID(c, "预订")
	if !ok {
		return
	}

	reservation, err := h.reservations.GetByID(c.Request.Context(), id)
	handler.MustSucceed(c, err, reservation)
}

// UpdateReservation 更新预订
// @Summary 更新预订
// @Description 入住和取消请使用对应接口
// @Tags 预订
// @Accept json
// @Produce json
// @Param id path int true "预订ID"
// @Param body body UpdateReservationBody true "更新字段"
// @Success 200 {object} response.Response{data=models.Reservation}
// @Router /api/v1/reservations/{id} [put]
func (h *Handler) UpdateReservation(c *gin.Context) {
	id, ok := handler.ParseID(c, "预订")
	if !ok {
		return
	}
	var body UpdateReservationBody
	if !handler.BindJSON(c, &body) {
		return
	}
	checkInDate, err := handler.ParseOptionalDate(body.CheckInDate)
	if handler.HandleError(c, err) {
		return
	}
	checkOutDate, err := handler.ParseOptionalDate(body.CheckOutDate)
	if handler.HandleError(c, err) {
		return
	}

	req := &hotelService.UpdateReservationRequest{
		CheckInDate:     checkInDate,
		CheckOutDate:    checkOutDate,
		GuestCount:      body.GuestCount,
		GuestName:       body.GuestName,
		GuestEmail:      body.GuestEmail,
		GuestMobile:     body.GuestMobile,
		SpecialRequests: body.SpecialRequests,
	}
	if body.Status != nil {
		status := models.ReservationStatus(*body.Status)
		req.Status = &status
	}

	reservation, err := h.reservations.Update(c.Request.Context(), id, req)
	handler.MustSucceed(c, err, reservation)
}

// ConfirmReservation 确认预订
// @Summary 确认预订
// @Tags 预订
// @Produce json
// @Param id path int true "预订ID"
// @Success 200 {object} response.Response{data=models.Reservation}
// @Router /api/v1/reservations/{id}/confirm [post]
func (h *Handler) ConfirmReservation(c *gin.Context) {
	id, ok := handler.ParseID(c, "预订")
	if !ok {
		return
	}

	reservation, err := h.reservations.Confirm(c.Request.Context(), id)
	handler.MustSucceed(c, err, reservation)
}

// CancelReservation 取消预订
// @Summary 取消预订
// @Tags 预订
// @Produce json
// @Param id path int true "预订ID"
// @Success 200 {object} response.Response{data=models.Reservation}
// @Router /api/v1/reservations/{id}/cancel [post]
func (h *Handler) CancelReservation(c *gin.Context) {
	id, ok := handler.ParseID(c, "预订")
	if !ok {
		return
	}

	reservation, err := h.reservations.Cancel(c.Request.Context(), id)
	handler.MustSucceed(c, err, reservation)
}

// MarkReservationCheckedIn 将预订关联到入住记录
// @Summary 预订标记为已入住
// @Tags 预订
// @Accept json
// @Produce json
// @Param id path int true "预订ID"
// @Param body body MarkCheckedInBody true "入住记录"
// @Success 200 {object} response.Response{data=models.Reservation}
// @Router /api/v1/reservations/{id}/check-in [post]
func (h *Handler) MarkReservationCheckedIn(c *gin.Context) {
	id, ok := handler.ParseID(c, "预订")
	if !ok {
		return
	}
	var body MarkCheckedInBody
	if !handler.BindJSON(c, &body) {
		return
	}

	reservation, err := h.reservations.MarkCheckedIn(c.Request.Context(), id, body.CheckInID)
	handler.MustSucceed(c, err, reservation)
}

// DeleteReservation 删除预订
// @Summary 删除预订
// @Tags 预订
// @Produce json
// @Param id path int true "预订ID"
// @Success 200 {object} response.Response
// @Router /api/v1/reservations/{id} [delete]
func (h *Handler) DeleteReservation(c *gin.Context) {
	id, ok := handler.ParseID(c, "预订")
	if !ok {
		return
	}

	err := h.reservations.Delete(c.Request.Context(), id)
	handler.MustSucceed(c, err, nil)
}
