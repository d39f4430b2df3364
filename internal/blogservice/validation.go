package blogservice

import (
	"regexp"
	"strings"

	"github.com/sushihentaime/blogsphere/internal/common"
)

var tagTextRX = regexp.MustCompile(`^\s*(#[a-zA-Z0-9]+)(\s+(#[a-zA-Z0-9]+))*\s*$`)

func validateTitle(v *common.Validator, title string) {
	v.Check(title != "", "title", "must be provided")
	v.Check(v.CheckStringLength(title, 3, 200), "title", "must be between 3 and 200 characters long")
}

func validateContent(v *common.Validator, content string) {
	v.Check(content != "", "content", "must be provided")
	v.Check(v.CheckStringLength(content, 10, 1<<20), "content", "must be at least 10 characters long")
}

func validateCategoryName(v *common.Validator, name string) {
	v.Check(name != "", "name", "must be provided")
	v.Check(v.CheckStringLength(name, 3, 50), "name", "must be between 3 and 50 characters long")
}

func validateCommentText(v *common.Validator, text string) {
	v.Check(text != "", "text", "must be provided")
	v.Check(v.CheckStringLength(text, 1, 2000), "text", "must not be more than 2000 characters long")
}

func validateID(v *common.Validator, id int64, name string) {
	v.Check(id > 0, name, "must be greater than zero")
}

// parseTags splits "#go #web" into ["go", "web"], dropping case-insensitive duplicates.
// Empty text yields no tags.
func parseTags(v *common.Validator, text string) []string {
	if strings.TrimSpace(text) == "" {
		return []string{}
	}

	if !v.Matches(text, tagTextRX) {
		v.AddError("tags", "must be hashtags separated by spaces (e.g. #tag1 #tag2)")
		return nil
	}

	seen := make(map[string]bool)
	var names []string
	for _, field := range strings.Fields(text) {
		name := strings.TrimPrefix(field, "#")
		key := strings.ToLower(name)
		if seen[key] {
			continue
		}
		seen[key] = true
		names = append(names, name)
	}

	return names
}
