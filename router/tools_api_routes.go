package router

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"noviai/internal/catalog"
)

type modelCard struct {
	Name          string   `json:"name"`
	Logo          string   `json:"logo"`
	Pros          []string `json:"pros"`
	Cons          []string `json:"cons"`
	PricePerToken float64  `json:"pricePerToken"`
	Price         string   `json:"price"`
	Credits       int64    `json:"credits"`
	Description   string   `json:"description"`
}

type categoryView struct {
	Category string      `json:"category"`
	Models   []modelCard `json:"models"`
}

func setToolsAPIRoutes(r gin.IRoutes, opts Options) {
	r.GET("/tools", listToolsHandler(opts))
	r.GET("/tools/:category", categoryToolsHandler(opts))
}

func listToolsHandler(opts Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		categories := opts.Catalog.Categories()
		out := make([]categoryView, 0, len(categories))
		for _, category := range categories {
			out = append(out, categoryView{
				Category: category,
				Models:   modelCards(opts, category),
			})
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "data": out})
	}
}

func categoryToolsHandler(opts Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		category := c.Param("category")
		cards := modelCards(opts, category)
		if len(cards) == 0 {
			respondError(c, http.StatusNotFound, fmt.Sprintf("类目不存在：%s", category))
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "data": categoryView{
			Category: category,
			Models:   cards,
		}})
	}
}

func modelCards(opts Options, category string) []modelCard {
	models := opts.Catalog.Models(category)
	credits := opts.Policy.PriceOf(category)

	cards := make([]modelCard, 0, len(models))
	for _, m := range models {
		cards = append(cards, newModelCard(m, credits))
	}
	return cards
}

func newModelCard(m catalog.Descriptor, credits int64) modelCard {
	description := "AI model for content generation"
	if len(m.Pros) > 0 && m.Pros[0] != "" {
		description = m.Pros[0]
	}
	price, _ := m.PricePerToken.Float64()
	return modelCard{
		Name:          m.Name,
		Logo:          m.Logo,
		Pros:          m.Pros,
		Cons:          m.Cons,
		PricePerToken: price,
		Price:         "$" + m.PricePerToken.StringFixed(4),
		Credits:       credits,
		Description:   description,
	}
}
