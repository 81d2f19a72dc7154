// Package hotel 提供房间、入住和预订的 HTTP Handler
package hotel

import (
	"github.com/gin-gonic/gin"

	"github.com/dumeirei/hotel-inventory-backend/internal/realtime"
	hotelService "github.com/dumeirei/hotel-inventory-backend/internal/service/hotel"
)

// Handler 酒店处理器
type Handler struct {
	rooms        *hotelService.RoomService
	checkIns     *hotelService.CheckInService
	reservations *hotelService.ReservationService
	hub          *realtime.Hub
}

// NewHandler 创建酒店处理器，hub 为 nil 时不提供房态推送
func NewHandler(svc *hotelService.Services, hub *realtime.Hub) *Handler {
	return &Handler{
		rooms:        svc.Rooms,
		checkIns:     svc.CheckIns,
		reservations: svc.Reservations,
		hub:          hub,
	}
}

// RegisterRoutes 注册路由
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	// 房型
	roomTypes := r.Group("/room-types")
	{
		roomTypes.GET("", h.ListRoomTypes)
		roomTypes.POST("", h.CreateRoomType)
	}

	// 房间
	rooms := r.Group("/rooms")
	{
		rooms.GET("", h.ListRooms)
		rooms.POST("", h.CreateRoom)
		rooms.GET("/available", h.ListAvailableRooms)
		if h.hub != nil {
			rooms.GET("/events", h.RoomEvents)
		}
		rooms.GET("/number/:room_no", h.GetRoomByNumber)
		rooms.GET("/:id", h.GetRoom)
		rooms.GET("/:id/availability", h.CheckRoomAvailability)
		rooms.GET("/:id/status", h.GetRoomStatus)
		rooms.PUT("/:id/status", h.UpdateRoomStatus)
		rooms.DELETE("/:id", h.DeleteRoom)
	}

	// 入住
	checkIns := r.Group("/check-ins")
	{
		checkIns.GET("", h.ListCheckIns)
		checkIns.POST("", h.CreateCheckIn)
		checkIns.GET("/active", h.ListActiveCheckIns)
		checkIns.GET("/:id", h.GetCheckIn)
		checkIns.GET("/:id/guests", h.ListGuests)
		checkIns.POST("/:id/checkout", h.CheckOut)
		checkIns.DELETE("/:id", h.DeleteCheckIn)
	}
	r.GET("/guests/:id", h.GetGuest)

	// 预订
	reservations := r.Group("/reservations")
	{
		reservations.GET("", h.ListReservations)
		reservations.POST("", h.CreateReservation)
		reservations.GET("/upcoming", h.ListUpcomingReservations)
		reservations.GET("/status/:status", h.ListReservationsByStatus)
		reservations.GET("/number/:reservation_no", h.GetReservationByNumber)
		reservations.GET("/:id", h.GetReservation)
		reservations.PUT("/:id", h.UpdateReservation)
		reservations.POST("/:id/confirm", h.ConfirmReservation)
		reservations.POST("/:id/cancel", h.CancelReservation)
		reservations.POST("/:id/check-in", h.MarkReservationCheckedIn)
		reservations.DELETE("/:id", h.DeleteReservation)
	}
}
