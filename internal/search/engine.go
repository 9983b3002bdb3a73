// Package search implements literal/regex/whole-word/case-aware
// matching over an accessor.Handle, in both directions from a given
// byte position.
//
// The matching technique (QuoteMeta for literal mode, \b wrapping for
// whole-word, case folding for smart-case) is grounded on
// sourcegraph/sourcegraph's cmd/searcher readerGrep matcher. That file
// avoids `(?i)` for performance reasons and lowercases both pattern
// and haystack instead — but its own TODO admits that naive
// lowercasing can mangle regex tokens such as `\S`. This engine uses
// `(?i)` instead, trading a little of that performance for not
// corrupting character classes in regex mode.
package search

import (
	"context"
	"regexp"
	"unicode/utf8"

	"github.com/nlindqvist/bigless/internal/accessor"
	"github.com/nlindqvist/bigless/internal/protocol"
)

const (
	cancelCheckLines = 4096
	searchBatchLines = 256
)

// Engine matches against an accessor.Handle's lines.
type Engine struct {
	acc *accessor.Handle

	compiledExpr string
	compiled     *regexp.Regexp
}

// NewEngine returns an Engine reading from acc.
func NewEngine(acc *accessor.Handle) *Engine {
	return &Engine{acc: acc}
}

// buildExpr turns a SearchContext into the regexp source to compile.
func buildExpr(sc protocol.SearchContext) string {
	expr := sc.Pattern
	if !sc.Options.Regex {
		expr = regexp.QuoteMeta(expr)
	}
	if sc.Options.WholeWord {
		expr = `\b(?:` + expr + `)\b`
	}
	if !sc.EffectiveCaseSensitive() {
		expr = `(?i)` + expr
	}
	return expr
}

// compiledFor compiles sc's effective pattern, reusing the previous
// compilation when the resolved expression is unchanged.
func (e *Engine) compiledFor(sc protocol.SearchContext) (*regexp.Regexp, error) {
	expr := buildExpr(sc)
	if e.compiled != nil && e.compiledExpr == expr {
		return e.compiled, nil
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, err
	}
	e.compiled = re
	e.compiledExpr = expr
	return re, nil
}

// FindMatch returns the byte offset of the start of the next matching
// line in dir from origin, or nil if none exists. A cancelled ctx
// returns ctx.Err(), distinct from "not found" (nil, nil).
func (e *Engine) FindMatch(ctx context.Context, origin uint64, dir protocol.Direction, sc protocol.SearchContext) (*uint64, error) {
	if sc.Pattern == "" {
		return nil, nil
	}
	re, err := e.compiledFor(sc)
	if err != nil {
		return nil, err
	}
	if dir == protocol.Forward {
		return e.findForward(ctx, origin, re)
	}
	return e.findBackward(ctx, origin, re)
}

func (e *Engine) findForward(ctx context.Context, origin uint64, re *regexp.Regexp) (*uint64, error) {
	cur := origin
	scanned := 0
	for {
		if err := checkCancel(ctx); err != nil {
			return nil, err
		}
		lines, next, atEOF, err := e.acc.ReadFromByte(cur, searchBatchLines)
		if err != nil {
			return nil, err
		}
		for _, ln := range lines {
			scanned++
			if scanned%cancelCheckLines == 0 {
				if err := checkCancel(ctx); err != nil {
					return nil, err
				}
			}
			if ln.Start <= origin {
				continue
			}
			if re.MatchString(ln.Text) {
				b := ln.Start
				return &b, nil
			}
		}
		if atEOF || len(lines) == 0 {
			return nil, nil
		}
		cur = next
	}
}

func (e *Engine) findBackward(ctx context.Context, origin uint64, re *regexp.Regexp) (*uint64, error) {
	cur, err := e.acc.ContainingLineStart(origin)
	if err != nil {
		return nil, err
	}
	scanned := 0
	for {
		if err := checkCancel(ctx); err != nil {
			return nil, err
		}
		if cur == 0 {
			return nil, nil
		}
		prevStart, err := e.acc.PrevPageStart(cur, 1, 0)
		if err != nil {
			return nil, err
		}
		if prevStart >= cur {
			return nil, nil
		}
		ln, err := e.acc.LineAt(prevStart)
		if err != nil {
			return nil, err
		}
		scanned++
		if scanned%cancelCheckLines == 0 {
			if err := checkCancel(ctx); err != nil {
				return nil, err
			}
		}
		if ln.Start < origin && re.MatchString(ln.Text) {
			b := ln.Start
			return &b, nil
		}
		cur = prevStart
	}
}

// LineMatches returns every disjoint, ordered match span inside text,
// in character units (spec.md open question (a): byte-wise scanning,
// character-unit reporting).
func (e *Engine) LineMatches(text string, sc protocol.SearchContext) ([]protocol.Span, error) {
	if sc.Pattern == "" || text == "" {
		return nil, nil
	}
	re, err := e.compiledFor(sc)
	if err != nil {
		return nil, err
	}
	idxs := re.FindAllStringIndex(text, -1)
	if idxs == nil {
		return nil, nil
	}
	spans := make([]protocol.Span, 0, len(idxs))
	for _, m := range idxs {
		spans = append(spans, protocol.Span{
			Start: utf8.RuneCountInString(text[:m[0]]),
			End:   utf8.RuneCountInString(text[:m[1]]),
		})
	}
	return spans, nil
}

func checkCancel(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
