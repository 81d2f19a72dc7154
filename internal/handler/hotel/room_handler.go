package hotel

import (
	"github.com/gin-gonic/gin"

	"github.com/dumeirei/hotel-inventory-backend/internal/common/handler"
	"github.com/dumeirei/hotel-inventory-backend/internal/common/response"
	"github.com/dumeirei/hotel-inventory-backend/internal/models"
	hotelService "github.com/dumeirei/hotel-inventory-backend/internal/service/hotel"
)

// CreateRoomBody 创建房间请求体，日期格式 YYYY-MM-DD
type CreateRoomBody struct {
	RoomNo     string  `json:"room_no" binding:"required,max=20"`
	RoomTypeID int64   `json:"room_type_id" binding:"required"`
	Status     string  `json:"status"`
	StatusFrom *string `json:"status_from"`
	StatusTo   *string `json:"status_to"`
}

// UpdateRoomStatusBody 更新房间状态请求体
type UpdateRoomStatusBody struct {
	Status     string  `json:"status" binding:"required"`
	StatusFrom *string `json:"status_from"`
	StatusTo   *string `json:"status_to"`
}

// RoomStatusInfo 房间状态
type RoomStatusInfo struct {
	RoomID     int64             `json:"room_id"`
	Status     models.RoomStatus `json:"status"`
	StatusFrom *string           `json:"status_from,omitempty"`
	StatusTo   *string           `json:"status_to,omitempty"`
}

// ListRoomTypes 获取房型列表
// @Summary 获取房型列表
// @Tags 房间
// @Produce json
// @Success 200 {object} response.Response{data=[]models.RoomType}
// @Router /api/v1/room-types [get]
func (h *Handler) ListRoomTypes(c *gin.Context) {
	types, err := h.rooms.ListRoomTypes(c.Request.Context())
	handler.MustSucceed(c, err, types)
}

// CreateRoomType 创建房型
// @Summary 创建房型
// @Tags 房间
// @Accept json
// @Produce json
// @Param body body hotelService.CreateRoomTypeRequest true "房型"
// @Success 201 {object} response.Response{data=models.RoomType}
// @Router /api/v1/room-types [post]
func (h *Handler) CreateRoomType(c *gin.Context) {
	var req hotelService.CreateRoomTypeRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	roomType, err := h.rooms.CreateRoomType(c.Request.Context(), &req)
	if handler.HandleError(c, err) {
		return
	}
	response.Created(c, roomType)
}

// ListRooms 获取房间列表
// @Summary 获取房间列表
// @Tags 房间
// @Produce json
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Param room_type_id query int false "房型ID"
// @Param status query string false "房间状态"
// @Success 200 {object} response.Response{data=response.PageData{list=[]models.Room}}
// @Router /api/v1/rooms [get]
func (h *Handler) ListRooms(c *gin.Context) {
	p := handler.BindPagination(c)
	roomTypeID, ok := handler.ParseQueryID(c, "room_type_id", "房型")
	if !ok {
		return
	}

	filters := make(map[string]interface{})
	if roomTypeID != nil {
		filters["room_type_id"] = *roomTypeID
	}
	if status := c.Query("status"); status != "" {
		st := models.RoomStatus(status)
		if !st.Valid() {
			response.BadRequest(c, "无效的房间状态")
			return
		}
		filters["status"] = st
	}

	rooms, total, err := h.rooms.List(c.Request.Context(), p.GetOffset(), p.GetLimit(), filters)
	handler.MustSucceedPage(c, err, rooms, total, p.Page, p.PageSize)
}

// CreateRoom 创建房间
// @Summary 创建房间
// @Tags 房间
// @Accept json
// @Produce json
// @Param body body CreateRoomBody true "房间"
// @Success 201 {object} response.Response{data=models.Room}
// @Router /api/v1/rooms [post]
func (h *Handler) CreateRoom(c *gin.Context) {
	var body CreateRoomBody
	if !handler.BindJSON(c, &body) {
		return
	}
	from, err := handler.ParseOptionalDate(body.StatusFrom)
	if handler.HandleError(c, err) {
		return
	}
	to, err := handler.ParseOptionalDate(body.StatusTo)
	if handler.HandleError(c, err) {
		return
	}

	room, err := h.rooms.Create(c.Request.Context(), &hotelService.CreateRoomRequest{
		RoomNo:     body.RoomNo,
		RoomTypeID: body.RoomTypeID,
		Status:     models.RoomStatus(body.Status),
		StatusFrom: from,
		StatusTo:   to,
	})
	if handler.HandleError(c, err) {
		return
	}
	response.Created(c, room)
}

// ListAvailableRooms 获取指定日期可用的房间
// @Summary 获取可用房间
// @Tags 房间
// @Produce json
// @Param check_in query string true "入住日期"
// @Param check_out query string true "离店日期"
// @Success 200 {object} response.Response{data=[]models.Room}
// @Router /api/v1/rooms/available [get]
func (h *Handler) ListAvailableRooms(c *gin.Context) {
	checkIn, checkOut, ok := handler.ParseStayQuery(c)
	if !ok {
		return
	}

	rooms, err := h.rooms.ListAvailable(c.Request.Context(), checkIn, checkOut)
	handler.MustSucceed(c, err, rooms)
}

// GetRoomByNumber 按房间号获取房间
// @Summary 按房间号获取房间
// @Tags 房间
// @Produce json
// @Param room_no path string true "房间号"
// @Success 200 {object} response.Response{data=models.Room}
// @Router /api/v1/rooms/number/{room_no} [get]
func (h *Handler) GetRoomByNumber(c *gin.Context) {
	room, err := h.rooms.GetByNumber(c.Request.Context(), c.Param("room_no"))
	handler.MustSucceed(c, err, room)
}

// GetRoom 获取房间详情
// @Summary 获取房间详情
// @Tags 房间
// @Produce json
// @Param id path int true "房间ID"
// @Success 200 {object} response.Response{data=models.Room}
// @Router /api/v1/rooms/{id} [get]
func (h *Handler) GetRoom(c *gin.Context) {
	roomID, ok := handler.ParseID(c, "房间")
	if !ok {
		return
	}

	room, err := h.rooms.GetByID(c.Request.Context(), roomID)
	handler.MustSucceed(c, err, room)
}

// CheckRoomAvailability 检查房间可用性
// @Summary 检查房间可用性
// @Tags 房间
// @Produce json
// @Param id path int true "房间ID"
// @Param check_in query string true "入住日期"
// @Param check_out query string true "离店日期"
// @Success 200 {object} response.Response{data=map[string]bool}
// @Router /api/v1/rooms/{id}/availability [get]
func (h *Handler) CheckRoomAvailability(c *gin.Context) {
	roomID, ok := handler.ParseID(c, "房间")
	if !ok {
		return
	}
	checkIn, checkOut, ok := handler.ParseStayQuery(c)
	if !ok {
		return
	}

	available, err := h.rooms.IsAvailable(c.Request.Context(), roomID, checkIn, checkOut)
	handler.MustSucceed(c, err, gin.H{"available": available})
}

// GetRoomStatus 获取房间状态
// @Summary 获取房间状态
// @Tags 房间
// @Produce json
// @Param id path int true "房间ID"
// @Success 200 {object} response.Response{data=RoomStatusInfo}
// @Router /api/v1/rooms/{id}/status [get]
func (h *Handler) GetRoomStatus(c *gin.Context) {
	roomID, ok := handler.ParseID(c, "房间")
	if !ok {
		return
	}

	st, err := h.rooms.GetStatus(c.Request.Context(), roomID)
	if handler.HandleError(c, err) {
		return
	}
	info := RoomStatusInfo{RoomID: roomID, Status: st.Status()}
	if w, ok := st.Window(); ok {
		from, to := w.From.Format("2006-01-02"), w.To.Format("2006-01-02")
		info.StatusFrom, info.StatusTo = &from, &to
	}
	response.Success(c, info)
}

// UpdateRoomStatus 更新房间状态
// @Summary 更新房间状态
// @Description 维修和锁房必须指定起止日期，其余状态忽略日期
// @Tags 房间
// @Accept json
// @Produce json
// @Param id path int true "房间ID"
// @Param body body UpdateRoomStatusBody true "状态"
// @Success 200 {object} response.Response{data=models.Room}
// @Router /api/v1/rooms/{id}/status [put]
func (h *Handler) UpdateRoomStatus(c *gin.Context) {
	roomID, ok := handler.ParseID(c, "房间")
	if !ok {
		return
	}
	var body UpdateRoomStatusBody
	if !handler.BindJSON(c, &body) {
		return
	}
	from, err := handler.ParseOptionalDate(body.StatusFrom)
	if handler.HandleError(c, err) {
		return
	}
	to, err := handler.ParseOptionalDate(body.StatusTo)
	if handler.HandleError(c, err) {
		return
	}

	room, err := h.rooms.UpdateStatus(c.Request.Context(), roomID, &hotelService.UpdateRoomStatusRequest{
		Status:     models.RoomStatus(body.Status),
		StatusFrom: from,
		StatusTo:   to,
	})
	handler.MustSucceed(c, err, room)
}

// DeleteRoom 删除房间
// @Summary 删除房间
// @Tags 房间
// @Produce json
// @Param id path int true "房间ID"
// @Success 200 {object} response.Response
// @Router /api/v1/rooms/{id} [delete]
func (h *Handler) DeleteRoom(c *gin.Context) {
	roomID, ok := handler.ParseID(c, "房间")
	if !ok {
		return
	}

	err := h.rooms.Delete(c.Request.Context(), roomID)
	handler.MustSucceed(c, err, nil)
}
