// Package gift holds the static localized gift catalog and the price lookup
// used by redemption. Gifts live in code, not in the database; ids are
// globally unique across locales.
package gift

import (
	"errors"

	"github.com/choreward/backend/models"
)

// ErrGiftNotFound is returned when a redemption references an unknown gift
// id.
var ErrGiftNotFound = errors.New("gift not found")

const bucketURL = "https://storage.googleapis.com/kidslikev2_bucket/"

var ruGifts = []models.Gift{
	{ID: 1, Title: "Сладости", Price: 40, ImageURL: bucketURL + "Rectangle%2025%20(8).png"},
	{ID: 2, Title: "Поход в кино", Price: 90, ImageURL: bucketURL + "Rectangle%2025%20(9).png"},
	{ID: 3, Title: "Подарок", Price: 100, ImageURL: bucketURL + "Rectangle%2025%20(10).png"},
	{ID: 4, Title: "Вечер пиццы", Price: 90, ImageURL: bucketURL + "Rectangle%2025%20(11).png"},
	{ID: 5, Title: "Вечеринка с друзьями", Price: 120, ImageURL: bucketURL + "Rectangle%2025%20(12).png"},
	{ID: 6, Title: "Поход в макдональдс", Price: 80, ImageURL: bucketURL + "Rectangle%2025%20(13).png"},
	{ID: 7, Title: "Желание", Price: 200, ImageURL: bucketURL + "Rectangle%2025%20(14).png"},
	{ID: 8, Title: "Поход на каток", Price: 100, ImageURL: bucketURL + "Rectangle%2025%20(15).png"},
}

var enGifts = []models.Gift{
	{ID: 9, Title: "Sweets", Price: 40, ImageURL: bucketURL + "Rectangle%2025%20(8).png"},
	{ID: 10, Title: "A walk to the movies", Price: 90, ImageURL: bucketURL + "Rectangle%2025%20(9).png"},
	{ID: 11, Title: "Gift", Price: 100, ImageURL: bucketURL + "Rectangle%2025%20(10).png"},
	{ID: 12, Title: "Pizza evening", Price: 90, ImageURL: bucketURL + "Rectangle%2025%20(11).png"},
	{ID: 13, Title: "Party with friends", Price: 120, ImageURL: bucketURL + "Rectangle%2025%20(12).png"},
	{ID: 14, Title: "McDonald's", Price: 80, ImageURL: bucketURL + "Rectangle%2025%20(13).png"},
	{ID: 15, Title: "A wish", Price: 200, ImageURL: bucketURL + "Rectangle%2025%20(14).png"},
	{ID: 16, Title: "Ice rink evening", Price: 100, ImageURL: bucketURL + "Rectangle%2025%20(15).png"},
}

var plGifts = []models.Gift{
	{ID: 17, Title: "Słodycze", Price: 40, ImageURL: bucketURL + "Rectangle%2025%20(8).png"},
	{ID: 18, Title: "Wyjście do kina", Price: 90, ImageURL: bucketURL + "Rectangle%2025%20(9).png"},
	{ID: 19, Title: "Prezent", Price: 100, ImageURL: bucketURL + "Rectangle%2025%20(10).png"},
	{ID: 20, Title: "Wieczór z pizzą", Price: 90, ImageURL: bucketURL + "Rectangle%2025%20(11).png"},
	{ID: 21, Title: "Impreza z przyjaciółmi", Price: 120, ImageURL: bucketURL + "Rectangle%2025%20(12).png"},
	{ID: 22, Title: "Wyjście do McDonald’s", Price: 80, ImageURL: bucketURL + "Rectangle%2025%20(13).png"},
	{ID: 23, Title: "Życzenie", Price: 200, ImageURL: bucketURL + "Rectangle%2025%20(14).png"},
	{ID: 24, Title: "Pójście na lodowisko", Price: 100, ImageURL: bucketURL + "Rectangle%2025%20(15).png"},
}

var catalogs = map[string][]models.Gift{
	"en": enGifts,
	"ru": ruGifts,
	"pl": plGifts,
}

var byID = func() map[int]models.Gift {
	m := make(map[int]models.Gift)
	for _, c := range catalogs {
		for _, g := range c {
			m[g.ID] = g
		}
	}
	return m
}()

// Catalog returns a copy of the catalog for a locale, falling back to
// English for unknown locales.
func Catalog(locale string) []models.Gift {
	c, ok := catalogs[locale]
	if !ok {
		c = catalogs["en"]
	}
	out := make([]models.Gift, len(c))
	copy(out, c)
	return out
}

// Find resolves a list of gift ids against the catalog. Any unknown id fails
// the whole lookup with ErrGiftNotFound.
func Find(ids []int) ([]models.Gift, error) {
	gifts := make([]models.Gift, 0, len(ids))
	for _, id := range ids {
		g, ok := byID[id]
		if !ok {
			return nil, ErrGiftNotFound
		}
		gifts = append(gifts, g)
	}
	return gifts, nil
}

// Total sums the prices of the given gifts.
func Total(gifts []models.Gift) int {
	total := 0
	for _, g := range gifts {
		total += g.Price
	}
	return total
}
