package blogservice

import (
	"context"
	"fmt"
	"strconv"

	"github.com/gosimple/slug"
)

const maxSlugAttempts = 1000

// slugCandidate returns the i-th slug to try for base: "hello-world", "hello-world1", ...
func slugCandidate(base string, i int) string {
	if i == 0 {
		return slug.Make(base)
	}
	return slug.Make(base + strconv.Itoa(i))
}

// uniqueSlug walks the candidates for base until taken reports one as free. Titles that
// slugify to nothing fall back to fallback.
func uniqueSlug(ctx context.Context, base, fallback string, taken func(context.Context, string) (bool, error)) (string, error) {
	if slug.Make(base) == "" {
		base = fallback
	}

	for i := 0; i < maxSlugAttempts; i++ {
		candidate := slugCandidate(base, i)

		used, err := taken(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !used {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("no free slug for %q after %d attempts", base, maxSlugAttempts)
}

func uniqueBlogSlug(ctx context.Context, store BlogStore, title string, excludeID int64) (string, error) {
	return uniqueSlug(ctx, title, "post", func(ctx context.Context, s string) (bool, error) {
		return store.BlogSlugTaken(ctx, s, excludeID)
	})
}

// uniqueCategorySlug never hands out the general category's slug.
func uniqueCategorySlug(ctx context.Context, store CategoryStore, userID int64, name string, excludeID int64) (string, error) {
	return uniqueSlug(ctx, name, "category", func(ctx context.Context, s string) (bool, error) {
		if s == GeneralCategoryName {
			return true, nil
		}
		return store.CategorySlugTaken(ctx, userID, s, excludeID)
	})
}
