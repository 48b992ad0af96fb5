package controller

import (
	"encoding/xml"
	"time"

	"casaviva_backend/internal/model"
	"casaviva_backend/pkg/database"

	"github.com/gofiber/fiber/v2"
)

// FeedItemLimit is how many published posts the RSS feed carries.
const FeedItemLimit = 30

type rssFeed struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	Description string    `xml:"description"`
	Language    string    `xml:"language"`
	Items       []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	Author      string `xml:"author,omitempty"`
	Category    string `xml:"category,omitempty"`
	GUID        string `xml:"guid"`
	PubDate     string `xml:"pubDate"`
}

// GetFeed renders the latest published posts as RSS 2.0.
func GetFeed(c *fiber.Ctx) error {
	var posts []model.Post
	if err := database.GetDB().
		Where("status = ?", model.PostStatusPublished).
		Order("published_at DESC").
		Limit(FeedItemLimit).
		Find(&posts).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Impossibile generare il feed",
		})
	}

	items := make([]rssItem, 0, len(posts))
	for _, post := range posts {
		pubDate := post.CreatedAt
		if post.PublishedAt != nil {
			pubDate = *post.PublishedAt
		}
		description := post.SeoDescription
		if description == "" {
			description = post.Subtitle
		}
		link := cfg.Server.PublicURL + "/blog/" + post.Slug
		items = append(items, rssItem{
			Title:       post.Title,
			Link:        link,
			Description: description,
			Author:      post.Author,
			Category:    post.Category,
			GUID:        link,
			PubDate:     pubDate.Format(time.RFC1123Z),
		})
	}

	feed := rssFeed{
		Version: "2.0",
		Channel: rssChannel{
			Title:       "Blog di CasaViva Immobiliare",
			Link:        cfg.Server.PublicURL + "/blog",
			Description: "Novità dal mercato immobiliare e dalla nostra agenzia",
			Language:    "it-it",
			Items:       items,
		},
	}

	out, err := xml.MarshalIndent(feed, "", "  ")
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Impossibile generare il feed",
		})
	}

	c.Set(fiber.HeaderContentType, "application/rss+xml; charset=utf-8")
	return c.SendString(xml.Header + string(out))
}
