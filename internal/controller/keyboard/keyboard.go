package keyboard

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-telegram/bot/models"
)

// Noop callback для кнопок-индикаторов
const Noop = "noop"

// Builder собирает inline клавиатуру по рядам
type Builder struct {
	rows [][]models.InlineKeyboardButton
}

func NewBuilder() *Builder {
	return &Builder{rows: make([][]models.InlineKeyboardButton, 0)}
}

// Row добавляет ряд, пустой ряд пропускается
func (b *Builder) Row(buttons ...models.InlineKeyboardButton) *Builder {
	if len(buttons) > 0 {
		b.rows = append(b.rows, buttons)
	}
	return b
}

// AddPagination добавляет ряд листания, если страниц больше одной
func (b *Builder) AddPagination(prefix string, page, totalPages int) *Builder {
	return b.Row(PaginationButtons(prefix, page, totalPages)...)
}

// Build возвращает клавиатуру или nil, если кнопок нет
func (b *Builder) Build() *models.InlineKeyboardMarkup {
	if len(b.rows) == 0 {
		return nil
	}
	return &models.InlineKeyboardMarkup{InlineKeyboard: b.rows}
}

func Button(text, callbackData string) models.InlineKeyboardButton {
	return models.InlineKeyboardButton{Text: text, CallbackData: callbackData}
}

// PaginationButtons ⬅️ 📄 n/m ➡️. page считается с нуля.
func PaginationButtons(prefix string, page, totalPages int) []models.InlineKeyboardButton {
	if totalPages <= 1 {
		return nil
	}

	var buttons []models.InlineKeyboardButton
	if page > 0 {
		buttons = append(buttons, Button("⬅️", PageData(prefix, page-1)))
	}
	buttons = append(buttons, Button(fmt.Sprintf("📄 %d/%d", page+1, totalPages), Noop))
	if page < totalPages-1 {
		buttons = append(buttons, Button("➡️", PageData(prefix, page+1)))
	}
	return buttons
}

// PageData callback data вида prefix:page
func PageData(prefix string, page int) string {
	return prefix + ":" + strconv.Itoa(page)
}

// ParsePage разбирает prefix:page
func ParsePage(prefix, data string) (int, error) {
	raw, ok := strings.CutPrefix(data, prefix+":")
	if !ok {
		return 0, fmt.Errorf("callback %q has no prefix %q", data, prefix)
	}
	page, err := strconv.Atoi(raw)
	if err != nil || page < 0 {
		return 0, fmt.Errorf("invalid page in callback %q", data)
	}
	return page, nil
}

// TotalPages число страниц для count элементов
func TotalPages(count, perPage int) int {
	if count <= 0 || perPage <= 0 {
		return 1
	}
	return (count + perPage - 1) / perPage
}
