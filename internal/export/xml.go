package export

import (
	"fmt"
	"io"
	"strconv"

	"github.com/Dan9191/recipe-service/internal/models"
	"github.com/beevik/etree"
)

// WriteRecipesXML writes recipes as an indented XML document
func WriteRecipesXML(w io.Writer, recipes []models.Recipe) error {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("recipes")
	root.CreateAttr("count", strconv.Itoa(len(recipes)))
	for _, r := range recipes {
		el := root.CreateElement("recipe")
		el.CreateAttr("id", strconv.FormatInt(r.ID, 10))
		el.CreateElement("title").SetText(r.Title)
		el.CreateElement("description").SetText(r.Description)
		el.CreateElement("time_minutes").SetText(strconv.Itoa(r.TimeMinutes))
		el.CreateElement("price").SetText(strconv.FormatFloat(r.Price, 'f', 2, 64))
		el.CreateElement("link").SetText(r.Link)
		el.CreateElement("image").SetText(r.Image)
		writeItems(el.CreateElement("tags"), "tag", r.Tags)
		writeItems(el.CreateElement("ingredients"), "ingredient", r.Ingredients)
	}

	doc.Indent(2)
	if _, err := doc.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write XML: %w", err)
	}
	return nil
}

func writeItems(parent *etree.Element, tag string, items []models.Item) {
	for _, item := range items {
		el := parent.CreateElement(tag)
		el.CreateAttr("id", strconv.FormatInt(item.ID, 10))
		el.SetText(item.Name)
	}
}
