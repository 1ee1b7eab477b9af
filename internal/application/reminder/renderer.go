package reminder

import (
	"fmt"
	"html"
	"strings"

	"github.com/go-form-dispatch/internal/domain"
)

// PlainRenderer builds a short reminder with a link back to the item.
type PlainRenderer struct {
	BaseURL string
}

func (r PlainRenderer) RenderReminder(item domain.Item, settings domain.Settings) (domain.Template, error) {
	if strings.TrimSpace(item.Title) == "" {
		return domain.Template{}, fmt.Errorf("item %s has no title", item.ItemID)
	}
	greeting := "Hello"
	if item.Name != nil && strings.TrimSpace(*item.Name) != "" {
		greeting = "Hello " + strings.TrimSpace(*item.Name)
	}
	link := strings.TrimRight(r.BaseURL, "/") + "/items/" + item.ItemID

	text := fmt.Sprintf("%s,\n\nYour listing \"%s\" is still marked %s. Please post an update or change its status if it is no longer current:\n%s\n\nYou receive this every %d days while the listing is active.\n",
		greeting, item.Title, item.Status, link, settings.ReminderIntervalDays)
	body := fmt.Sprintf("<p>%s,</p><p>Your listing <strong>%s</strong> is still marked %s. Please post an update or change its status if it is no longer current:</p><p><a href=\"%s\">%s</a></p><p>You receive this every %d days while the listing is active.</p>",
		html.EscapeString(greeting), html.EscapeString(item.Title), html.EscapeString(item.Status),
		html.EscapeString(link), html.EscapeString(link), settings.ReminderIntervalDays)

	return domain.Template{
		Subject:  "Reminder: " + item.Title,
		TextBody: text,
		HTMLBody: body,
	}, nil
}
