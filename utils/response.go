package utils

import (
	"github.com/kataras/iris/v12"
)

// Every response, success or failure, uses the same envelope:
// {"success": bool, "message": string, "data": any}

type PageMeta struct {
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
	Total   int64 `json:"total"`
}

func JSONData(ctx iris.Context, message string, data interface{}) {
	ctx.JSON(iris.Map{
		"success": true,
		"message": message,
		"data":    data,
	})
}

func JSONPage(ctx iris.Context, message string, data interface{}, page, perPage int, total int64) {
	ctx.JSON(iris.Map{
		"success": true,
		"message": message,
		"data":    data,
		"meta":    PageMeta{Page: page, PerPage: perPage, Total: total},
	})
}
