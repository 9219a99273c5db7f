package helpers

import "github.com/joshua-takyi/staybook/internal/models"

func SuccessResponse(data interface{}, message string) models.ApiResponse {
	return models.SuccessResponse(data, message)
}

func ErrorResponse(err string) models.ApiResponse {
	return models.ErrorResponse(err)
}

func PaginatedResponse(data interface{}, page, limit, total int) models.ApiResponse {
	return models.PaginatedResponse(data, page, limit, total)
}
