package blogservice

import (
	"context"
	"strings"

	"github.com/sushihentaime/blogsphere/internal/common"
)

type CategoryGroupPage struct {
	Categories []CategoryGroup `json:"categories"`
	Total      int             `json:"total"`
	MaxPage    int             `json:"max_page"`
}

func normalizeCategoryName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// CreateCategory adds a category for userID. Names are stored lowercased and must be unique per user.
func (s *BlogService) CreateCategory(ctx context.Context, userID int64, name string) (*Category, error) {
	name = normalizeCategoryName(name)

	v := common.NewValidator()
	validateCategoryName(v, name)
	v.Check(name != GeneralCategoryName, "name", "is reserved")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	cat := &Category{UserID: userID, Name: name}
	err := s.inTx(ctx, func(store Store) error {
		taken, err := store.CategoryNameTaken(ctx, userID, name, 0)
		if err != nil {
			return err
		}
		if taken {
			return common.NewValidationError("name", "a category with this name already exists")
		}

		cat.Slug, err = uniqueCategorySlug(ctx, store, userID, name, 0)
		if err != nil {
			return err
		}

		return store.InsertCategory(ctx, cat)
	})
	if err != nil {
		return nil, common.WrapStorage("create category", err)
	}

	return cat, nil
}

// GetCategory returns one of userID's categories. The general category is created on first access.
func (s *BlogService) GetCategory(ctx context.Context, userID int64, slug string) (*Category, error) {
	if _, err := s.store.EnsureGeneralCategory(ctx, userID); err != nil {
		return nil, err
	}

	return s.store.GetCategoryBySlug(ctx, userID, slug)
}

// UpdateCategory renames a category, regenerating its slug. The general category can not be renamed.
func (s *BlogService) UpdateCategory(ctx context.Context, cat *Category, userID int64, name string) (*Category, error) {
	if cat.UserID != userID || cat.IsGeneral {
		return nil, common.ErrForbidden
	}

	name = normalizeCategoryName(name)

	v := common.NewValidator()
	validateCategoryName(v, name)
	v.Check(name != GeneralCategoryName, "name", "is reserved")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	updated := *cat
	if name == cat.Name {
		return &updated, nil
	}

	err := s.inTx(ctx, func(store Store) error {
		taken, err := store.CategoryNameTaken(ctx, userID, name, cat.ID)
		if err != nil {
			return err
		}
		if taken {
			return common.NewValidationError("name", "a category with this name already exists")
		}

		updated.Name = name
		updated.Slug, err = uniqueCategorySlug(ctx, store, userID, name, cat.ID)
		if err != nil {
			return err
		}

		return store.UpdateCategory(ctx, &updated)
	})
	if err != nil {
		return nil, common.WrapStorage("update category", err)
	}

	s.cache.DeletePrefix(common.CachePrefixBlog)
	s.invalidate()

	return &updated, nil
}

// DeleteCategory moves the category's blogs into the owner's general category, adds their
// number to its blog count and deletes the category, all in one transaction. The general
// category can not be deleted.
func (s *BlogService) DeleteCategory(ctx context.Context, cat *Category, userID int64) error {
	if cat.UserID != userID || cat.IsGeneral {
		return common.ErrForbidden
	}

	err := s.store.WithTx(ctx, func(store Store) error {
		general, err := store.EnsureGeneralCategory(ctx, userID)
		if err != nil {
			return err
		}

		moved, err := store.ReassignCategory(ctx, cat.ID, general.ID)
		if err != nil {
			return err
		}

		if moved > 0 {
			if err := store.AdjustCategoryCount(ctx, general.ID, moved); err != nil {
				return err
			}
		}

		return store.DeleteCategory(ctx, cat.ID)
	})
	if err != nil {
		return common.WrapStorage("delete category", err)
	}

	s.cache.DeletePrefix(common.CachePrefixBlog)
	s.invalidate()

	return nil
}

// ListUserCategories lists userID's categories, general first.
func (s *BlogService) ListUserCategories(ctx context.Context, userID int64, page, limit int) (*CategoryPage, error) {
	page, limit, err := pagination(page, limit, DefaultCategoryLimit)
	if err != nil {
		return nil, err
	}

	if _, err := s.store.EnsureGeneralCategory(ctx, userID); err != nil {
		return nil, err
	}

	categories, total, err := s.store.ListUserCategories(ctx, userID, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}

	return &CategoryPage{Categories: categories, Total: total, MaxPage: maxPage(total, limit)}, nil
}

// ListCategoryGroups lists every user's categories grouped by name, with summed blog counts.
func (s *BlogService) ListCategoryGroups(ctx context.Context, page, limit int) (*CategoryGroupPage, error) {
	page, limit, err := pagination(page, limit, DefaultCategoryLimit)
	if err != nil {
		return nil, err
	}

	groups, total, err := s.store.ListCategoryGroups(ctx, "", limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}

	return &CategoryGroupPage{Categories: groups, Total: total, MaxPage: maxPage(total, limit)}, nil
}
