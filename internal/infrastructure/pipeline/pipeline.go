// Package pipeline собирает запросы списков из упорядоченных стадий поверх squirrel.
package pipeline

import (
	"fmt"
	"sort"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
)

// Phase задаёт порядок применения стадий. Стадии одной фазы идут в порядке добавления.
type Phase int

const (
	PhaseArchival Phase = iota
	PhaseVisibility
	PhaseNarrow
	PhaseSearch
	PhaseOrder
	PhasePage
)

func (p Phase) String() string {
	switch p {
	case PhaseArchival:
		return "archival"
	case PhaseVisibility:
		return "visibility"
	case PhaseNarrow:
		return "narrow"
	case PhaseSearch:
		return "search"
	case PhaseOrder:
		return "order"
	case PhasePage:
		return "page"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

type Stage struct {
	Phase Phase
	Name  string
	apply func(sq.SelectBuilder) sq.SelectBuilder
}

// noop - стадия, которая ничего не меняет (пустое значение фильтра).
func noop(phase Phase, name string) Stage {
	return Stage{Phase: phase, Name: name}
}

func (s Stage) IsNoop() bool {
	return s.apply == nil
}

type Pipeline struct {
	stages []Stage
}

func New(stages ...Stage) *Pipeline {
	p := &Pipeline{}
	return p.Add(stages...)
}

func (p *Pipeline) Add(stages ...Stage) *Pipeline {
	p.stages = append(p.stages, stages...)
	return p
}

// Stages возвращает стадии в порядке исполнения.
func (p *Pipeline) Stages() []Stage {
	out := make([]Stage, len(p.stages))
	copy(out, p.stages)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Phase < out[j].Phase })
	return out
}

func (p *Pipeline) Apply(b sq.SelectBuilder) sq.SelectBuilder {
	return p.run(b, PhasePage)
}

// ApplyCount - тот же набор условий без сортировки и пагинации.
func (p *Pipeline) ApplyCount(b sq.SelectBuilder) sq.SelectBuilder {
	return p.run(b, PhaseSearch)
}

func (p *Pipeline) run(b sq.SelectBuilder, last Phase) sq.SelectBuilder {
	for _, s := range p.Stages() {
		if s.Phase > last || s.apply == nil {
			continue
		}
		b = s.apply(b)
	}
	return b
}

// --- стадии ---

// Archived оставляет только архивные (deleted_at IS NOT NULL) или только активные записи.
func Archived(column string, archived bool) Stage {
	pred := sq.Sqlizer(sq.Eq{column: nil})
	if archived {
		pred = sq.NotEq{column: nil}
	}
	return Where(PhaseArchival, "archived", pred)
}

// Visibility ограничивает записи тем, что актору разрешено видеть. nil - видно всё.
func Visibility(pred sq.Sqlizer) Stage {
	return Where(PhaseVisibility, "visibility", pred)
}

func Where(phase Phase, name string, pred sq.Sqlizer) Stage {
	if pred == nil {
		return noop(phase, name)
	}
	return Stage{Phase: phase, Name: name, apply: func(b sq.SelectBuilder) sq.SelectBuilder {
		return b.Where(pred)
	}}
}

func WhereIn[T any](column string, values []T) Stage {
	name := "in:" + column
	if len(values) == 0 {
		return noop(PhaseNarrow, name)
	}
	return Where(PhaseNarrow, name, sq.Eq{column: values})
}

func Equal(column, value string) Stage {
	name := "eq:" + column
	if strings.TrimSpace(value) == "" {
		return noop(PhaseNarrow, name)
	}
	return Where(PhaseNarrow, name, sq.Eq{column: value})
}

// DateRange - включительный диапазон дат; верхняя граница сравнивается со следующим днём,
// поэтому работает и для DATE, и для TIMESTAMP колонок.
func DateRange(column string, from, to *time.Time) Stage {
	name := "range:" + column
	var conds sq.And
	if from != nil {
		conds = append(conds, sq.GtOrEq{column: truncateDay(*from)})
	}
	if to != nil {
		conds = append(conds, sq.Lt{column: truncateDay(*to).AddDate(0, 0, 1)})
	}
	if len(conds) == 0 {
		return noop(PhaseNarrow, name)
	}
	return Where(PhaseNarrow, name, conds)
}

// Search - регистронезависимый поиск подстроки по любой из колонок.
func Search(term string, columns ...string) Stage {
	term = strings.TrimSpace(term)
	if term == "" || len(columns) == 0 {
		return noop(PhaseSearch, "search")
	}
	pattern := "%" + escapeLike(term) + "%"
	or := make(sq.Or, 0, len(columns))
	for _, col := range columns {
		or = append(or, sq.ILike{col: pattern})
	}
	return Where(PhaseSearch, "search", or)
}

// OrderBy разбирает sort вида "-scheduled_date,client_name". Незнакомые поля пропускаются;
// если ни одно не подошло, используется fallback.
func OrderBy(sortParam string, allowed map[string]string, fallback ...string) Stage {
	var clauses []string
	for _, field := range strings.Split(sortParam, ",") {
		field = strings.TrimSpace(field)
		dir := "ASC"
		if strings.HasPrefix(field, "-") {
			dir = "DESC"
			field = field[1:]
		}
		col, ok := allowed[field]
		if !ok {
			continue
		}
		clauses = append(clauses, col+" "+dir)
	}
	if len(clauses) == 0 {
		clauses = fallback
	}
	if len(clauses) == 0 {
		return noop(PhaseOrder, "order")
	}
	return Stage{Phase: PhaseOrder, Name: "order", apply: func(b sq.SelectBuilder) sq.SelectBuilder {
		return b.OrderBy(clauses...)
	}}
}

func Paginate(limit, offset uint64) Stage {
	if limit == 0 {
		return noop(PhasePage, "page")
	}
	return Stage{Phase: PhasePage, Name: "page", apply: func(b sq.SelectBuilder) sq.SelectBuilder {
		return b.Limit(limit).Offset(offset)
	}}
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
