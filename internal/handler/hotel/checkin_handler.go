package hotel

import (
	"github.com/gin-gonic/gin"

	"github.com/dumeirei/hotel-inventory-backend/internal/common/handler"
	"github.com/dumeirei/hotel-inventory-backend/internal/common/response"
	"github.com/dumeirei/hotel-inventory-backend/internal/models"
	hotelService "github.com/dumeirei/hotel-inventory-backend/internal/service/hotel"
)

// CreateCheckInBody 办理入住请求体
type CreateCheckInBody struct {
	RoomNo        string                    `json:"room_no" binding:"required"`
	CheckInDate   string                    `json:"check_in_date" binding:"required"`
	CheckOutDate  string                    `json:"check_out_date" binding:"required"`
	Guests        []hotelService.GuestInput `json:"guests" binding:"required,dive"`
	Remarks       *string                   `json:"remarks"`
	ReservationID *int64                    `json:"reservation_id"`
}

// ListCheckIns 获取入住记录列表
// @Summary 获取入住记录列表
// @Tags 入住
// @Produce json
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Param room_id query int false "房间ID"
// @Param status query string false "状态(active/checked_out/cancelled)"
// @Success 200 {object} response.Response{data=response.PageData{list=[]models.CheckIn}}
// @Router /api/v1/check-ins [get]
func (h *Handler) ListCheckIns(c *gin.Context) {
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
		filters["status"] = models.CheckInStatus(status)
	}

	checkIns, total, err := h.checkIns.List(c.Request.Context(), p.GetOffset(), p.GetLimit(), filters)
	handler.MustSucceedPage(c, err, checkIns, total, p.Page, p.PageSize)
}

// CreateCheckIn 办理入住
// @Summary 办理入住
// @Description reservation_id 非空时履行该预订
// @Tags 入住
// @Accept json
// @Produce json
// @Param body body CreateCheckInBody true "入住信息"
// @Success 201 {object} response.Response{data=models.CheckIn}
// @Router /api/v1/check-ins [post]
func (h *Handler) CreateCheckIn(c *gin.Context) {
	var body CreateCheckInBody
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

	checkIn, err := h.checkIns.Create(c.Request.Context(), &hotelService.CreateCheckInRequest{
		RoomNo:        body.RoomNo,
		CheckInDate:   checkInDate,
		CheckOutDate:  checkOutDate,
		Guests:        body.Guests,
		Remarks:       body.Remarks,
		ReservationID: body.ReservationID,
	})
	if handler.HandleError(c, err) {
		return
	}
	response.Created(c, checkIn)
}

// ListActiveCheckIns 获取在住记录
// @Summary 获取在住记录
// @Tags 入住
// @Produce json
// @Success 200 {object} response.Response{data=[]models.CheckIn}
// @Router /api/v1/check-ins/active [get]
func (h *Handler) ListActiveCheckIns(c *gin.Context) {
	checkIns, err := h.checkIns.ListActive(c.Request.Context())
	handler.MustSucceed(c, err, checkIns)
}

// GetCheckIn 获取入住记录详情
// @Summary 获取入住记录详情
// @Tags 入住
// @Produce json
// @Param id path int true "入住记录ID"
// @Success 200 {object} response.Response{data=models.CheckIn}
// @Router /api/v1/check-ins/{id} [get]
func (h *Handler) GetCheckIn(c *gin.Context) {
	id, ok := handler.ParseID(c, "入住记录")
	if !ok {
		return
	}

	checkIn, err := h.checkIns.GetByID(c.Request.Context(), id)
	handler.MustSucceed(c, err, checkIn)
}

// ListGuests 获取入住客人
// @Summary 获取入住客人
// @Tags 入住
// @Produce json
// @Param id path int true "入住记录ID"
// @Success 200 {object} response.Response{data=[]models.Guest}
// @Router /api/v1/check-ins/{id}/guests [get]
func (h *Handler) ListGuests(c *gin.Context) {
	id, ok := handler.ParseID(c, "入住记录")
	if !ok {
		return
	}

	guests, err := h.checkIns.ListGuests(c.Request.Context(), id)
	handler.MustSucceed(c, err, guests)
}

// CheckOut 办理退房
// @Summary 办理退房
// @Description 退房后房间进入待清洁状态
// @Tags 入住
// @Produce json
// @Param id path int true "入住记录ID"
// @Success 200 {object} response.Response{data=models.CheckIn}
// @Router /api/v1/check-ins/{id}/checkout [post]
func (h *Handler) CheckOut(c *gin.Context) {
	id, ok := handler.ParseID(c, "入住记录")
	if !ok {
		return
	}

	checkIn, err := h.checkIns.CheckOut(c.Request.Context(), id)
	handler.MustSucceed(c, err, checkIn)
}

// DeleteCheckIn 删除入住记录
// @Summary 删除入住记录
// @Tags 入住
// @Produce json
// @Param id path int true "入住记录ID"
// @Success 200 {object} response.Response
// @Router /api/v1/check-ins/{id} [delete]
func (h *Handler) DeleteCheckIn(c *gin.Context) {
	id, ok := handler.ParseID(c, "入住记录")
	if !ok {
		return
	}

	err := h.checkIns.Delete(c.Request.Context(), id)
	handler.MustSucceed(c, err, nil)
}

// GetGuest 获取客人
// @Summary 获取客人
// @Tags 入住
// @Produce json
// @Param id path int true "客人ID"
// @Success 200 {object} response.Response{data=models.Guest}
// @Router /api/v1/guests/{id} [get]
func (h *Handler) GetGuest(c *gin.Context) {
	id, ok := handler.ParseID(c, "客人")
	if !ok {
		return
	}

	guest, err := h.checkIns.GetGuest(c.Request.Context(), id)
	handler.MustSucceed(c, err, guest)
}
