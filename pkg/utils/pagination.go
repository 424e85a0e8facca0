package utils

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

type PaginationParams struct {
	Page         int
	ItemsPerPage int
	Offset       int
}

// GetPaginationParams extracts page/itemsPerPage query parameters with defaults.
func GetPaginationParams(c echo.Context) PaginationParams {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	itemsPerPage, _ := strconv.Atoi(c.QueryParam("itemsPerPage"))

	if page <= 0 {
		page = 1
	}
	if itemsPerPage <= 0 || itemsPerPage > 100 {
		itemsPerPage = 10
	}

	return PaginationParams{
		Page:         page,
		ItemsPerPage: itemsPerPage,
		Offset:       (page - 1) * itemsPerPage,
	}
}

type Paginated struct {
	Items        interface{} `json:"items"`
	CurrentPage  int         `json:"currentPage"`
	HasNextPage  bool        `json:"hasNextPage"`
	HasPrevPage  bool        `json:"hasPreviousPage"`
	NextPage     int         `json:"nextPage"`
	PreviousPage int         `json:"previousPage"`
	LastPage     int         `json:"lastPage"`
	TotalItems   int64       `json:"totalItems"`
}

// Paginate wraps a result page in the envelope clients expect.
func Paginate(items interface{}, page int, totalItems int64, itemsPerPage int) Paginated {
	if itemsPerPage <= 0 {
		itemsPerPage = 10
	}
	lastPage := int(totalItems) / itemsPerPage
	if int(totalItems)%itemsPerPage > 0 {
		lastPage++
	}

	return Paginated{
		Items:        items,
		CurrentPage:  page,
		HasNextPage:  int64(itemsPerPage*page) < totalItems,
		HasPrevPage:  page > 1,
		NextPage:     page + 1,
		PreviousPage: page - 1,
		LastPage:     lastPage,
		TotalItems:   totalItems,
	}
}
