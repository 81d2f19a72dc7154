// Package handler 提供 API Handler 的通用辅助函数
// 统一错误响应、参数解析和分页处理
package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dumeirei/hotel-inventory-backend/internal/common/daterange"
	"github.com/dumeirei/hotel-inventory-backend/internal/common/errors"
	"github.com/dumeirei/hotel-inventory-backend/internal/common/logger"
	"github.com/dumeirei/hotel-inventory-backend/internal/common/response"
	"github.com/dumeirei/hotel-inventory-backend/internal/common/utils"
)

// StatusOf 错误类别对应的 HTTP 状态码
func StatusOf(kind errors.Kind) int {
	switch kind {
	case errors.KindNotFound:
		return http.StatusNotFound
	case errors.KindBusinessRule:
		return http.StatusUnprocessableEntity
	case errors.KindValidation:
		return http.StatusBadRequest
	case errors.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// HandleError 处理错误并发送适当的响应
// err 为 nil 时返回 false；否则写入错误响应并返回 true，调用方应直接 return
//
// 使用示例:
//
//	result, err := service.DoSomething()
//	if HandleError(c, err) {
//	    return
//	}
func HandleError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}
	appErr := errors.GetAppError(err)
	status := StatusOf(appErr.Kind)
	if status >= http.StatusInternalServerError {
		// 底层错误只写日志，响应中只有预定义消息
		logger.Error("请求处理失败",
			logger.Module("http"),
			logger.Action(c.Request.Method+" "+c.FullPath()),
			logger.Err(err),
		)
	}
	response.Error(c, status, appErr.Code, appErr.Message)
	return true
}

// MustSucceed 有错误则返回错误响应，否则返回成功响应
func MustSucceed(c *gin.Context, err error, data interface{}) {
	if HandleError(c, err) {
		return
	}
	response.Success(c, data)
}

// MustSucceedPage 分页响应版本
func MustSucceedPage(c *gin.Context, err error, list interface{}, total int64, page, pageSize int) {
	if HandleError(c, err) {
		return
	}
	response.SuccessPage(c, list, total, page, pageSize)
}

// BindJSON 绑定请求体，失败时发送 400 响应并返回 false
func BindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return false
	}
	return true
}

// ParseID 解析路径参数 "id" 为 int64
func ParseID(c *gin.Context, resourceName string) (int64, bool) {
	return ParseParamID(c, "id", resourceName)
}

// ParseParamID 解析指定路径参数为 int64
// 解析失败时已发送 400 响应
func ParseParamID(c *gin.Context, paramName, resourceName string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(paramName), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "无效的"+resourceName+"ID")
		return 0, false
	}
	return id, true
}

// ParseQueryID 解析查询参数中的可选 ID，参数为空时返回 (nil, true)
func ParseQueryID(c *gin.Context, paramName, resourceName string) (*int64, bool) {
	idStr := c.Query(paramName)
	if idStr == "" {
		return nil, true
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "无效的"+resourceName+"ID")
		return nil, false
	}
	return &id, true
}

// ParseDate 解析日期，支持 YYYY-MM-DD 和 RFC3339，结果截断为 UTC 零点
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := daterange.Parse(s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, errors.ErrInvalidParams.WithMessagef("无效的日期: %s", s)
	}
	return daterange.Date(t), nil
}

// ParseOptionalDate 解析可选日期字段，nil 或空串返回 nil
func ParseOptionalDate(s *string) (*time.Time, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	t, err := ParseDate(*s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ParseStayQuery 从查询参数解析入住区间（check_in, check_out）
// 任一缺失或格式错误时已发送 400 响应
func ParseStayQuery(c *gin.Context) (time.Time, time.Time, bool) {
	checkInStr, checkOutStr := c.Query("check_in"), c.Query("check_out")
	if checkInStr == "" || checkOutStr == "" {
		response.BadRequest(c, "请指定入住和离店日期")
		return time.Time{}, time.Time{}, false
	}
	checkIn, err := ParseDate(checkInStr)
	if err != nil {
		response.BadRequest(c, "无效的入住日期格式")
		return time.Time{}, time.Time{}, false
	}
	checkOut, err := ParseDate(checkOutStr)
	if err != nil {
		response.BadRequest(c, "无效的离店日期格式")
		return time.Time{}, time.Time{}, false
	}
	return checkIn, checkOut, true
}

// BindPagination 从查询参数绑定并规范化分页参数
//
// 使用示例:
//
//	p := handler.BindPagination(c)
//	list, total, err := service.List(ctx, p.GetOffset(), p.GetLimit(), filters)
//	MustSucceedPage(c, err, list, total, p.Page, p.PageSize)
func BindPagination(c *gin.Context) utils.Pagination {
	var p utils.Pagination
	p.Page, _ = strconv.Atoi(c.DefaultQuery("page", strconv.Itoa(utils.DefaultPage)))
	p.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(utils.DefaultPageSize)))
	p.Normalize()
	return p
}
