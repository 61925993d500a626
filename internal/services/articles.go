package services

import (
	"sort"

	"github.com/xqin/go-blog-backend/internal/config"
	"github.com/xqin/go-blog-backend/internal/crud"
	"github.com/xqin/go-blog-backend/internal/domain"
	"github.com/xqin/go-blog-backend/internal/status"
)

// ArticleSpec declares the article wire surface. abstract and content are
// writable but excluded from substring filtering; heat is maintained by the
// application, not the author. label is a membership filter over the
// article_labels join table, not a column of the articles table.
func ArticleSpec() crud.Spec {
	return crud.Spec{
		Fields:         []string{"name", "classification", "heat", "abstract", "content", "created", "modified"},
		ContainsFields: []string{"name"},
		ReadOnly:       []string{"heat"},
		DefaultOrder:   "-created",
		Columns:        map[string]string{"classification": "classification_id"},
		Relations: map[string]func(string) (string, []any){
			"label": func(v string) (string, []any) {
				return "id IN (SELECT article_id FROM article_labels WHERE label_id = ?)", []any{v}
			},
		},
	}
}

// ArticleHooks enforces the shared name rules for posts and keeps the
// label attachments in step with the request body.
type ArticleHooks struct {
	contentHooks[domain.Article]
}

// NewArticleHooks builds the article policy.
func NewArticleHooks(cfg config.CRUDConfig) ArticleHooks {
	return ArticleHooks{contentHooks[domain.Article]{cfg: cfg}}
}

// AfterCreate attaches the labels named in the request, inside the create
// transaction.
func (h ArticleHooks) AfterCreate(hc *crud.Context, rec *domain.Article, p crud.Payload) error {
	if !p.Has("label") {
		return nil
	}
	return syncLabels(hc, rec, p.Value("label"))
}

// BeforeUpdate runs the shared name rules, then replaces the label set when
// the request carries one. Replacement happens here rather than after the
// column update so it shares the operation's transaction and is reflected
// by the re-read that produces the response.
func (h ArticleHooks) BeforeUpdate(hc *crud.Context, rec *domain.Article, p crud.Payload) (crud.Payload, error) {
	p, err := h.contentHooks.BeforeUpdate(hc, rec, p)
	if err != nil {
		return nil, err
	}
	if p.Has("label") {
		if err := syncLabels(hc, rec, p.Value("label")); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// AfterDelete drops the article's rows from the join table so a deleted
// article leaves no dangling attachments behind.
func (h ArticleHooks) AfterDelete(hc *crud.Context, rec *domain.Article) error {
	return hc.Tx.Exec("DELETE FROM article_labels WHERE article_id = ?", rec.ID).Error
}

// syncLabels replaces rec's label set with the ids in raw, which arrives as
// the decoded JSON array from the request body. Every id must name an
// existing label; on success rec carries the new id list for the response.
func syncLabels(hc *crud.Context, rec *domain.Article, raw any) error {
	ids, ok := labelIDs(raw)
	if !ok {
		return status.New(status.ParamIsNull, "label")
	}

	var labels []domain.Label
	if len(ids) > 0 {
		if err := hc.Tx.Where("id IN ?", ids).Find(&labels).Error; err != nil {
			return err
		}
		if len(labels) != len(ids) {
			return status.Errorf(status.Unknown, "label not found")
		}
	}
	if err := hc.Tx.Model(rec).Association("Labels").Replace(labels); err != nil {
		return err
	}
	rec.LabelIDs = ids
	return nil
}

// labelIDs coerces a decoded JSON value into a sorted, de-duplicated id
// list. Anything but an array of non-negative integers is rejected.
func labelIDs(raw any) ([]uint, bool) {
	arr, ok := raw.([]any)
	if !ok {
		return nil, false
	}
	seen := map[uint]bool{}
	ids := make([]uint, 0, len(arr))
	for _, v := range arr {
		f, ok := v.(float64)
		if !ok || f < 0 || f != float64(uint(f)) {
			return nil, false
		}
		id := uint(f)
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, true
}
