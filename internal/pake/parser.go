// Copyright 2015 Google Inc. All rights reserved
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package pake

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/glog"
)

// ParseError is a parse-time error carrying the offending token's location
// and what was expected, matching spec.md §7's "token location + expected
// text" requirement.
type ParseError struct {
	Pos Position
	Msg string
}

func (e *ParseError) Error() string { return fmt.Sprintf("%s: %s", e.Pos, e.Msg) }

func parseErrorf(tok Token, format string, args ...interface{}) error {
	return &ParseError{Pos: tok.Pos, Msg: fmt.Sprintf(format, args...)}
}

func moduleName(filename string) string {
	base := filepath.Base(filename)
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext)
}

// parser walks a single build file's token stream, recursive-descent style,
// populating a shared World. It intentionally has no AST/eval split (unlike
// kati's ast.go+eval.go): spec.md's directives have no conditionals or
// includes to re-evaluate, so a direct single pass — grounded on the
// original Python parser.py, which calls straight into
// variables.add/targets.add_target as it parses — is the right shape.
type parser struct {
	world     *World
	scopeName string
	filename  string
	tokens    []Token
	pos       int
}

// ParseBuildFile reads, lexes, and parses filename into world.
func ParseBuildFile(world *World, filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("reading %s: %w", filename, err)
	}
	tokens, err := Lex(filename, data)
	if err != nil {
		return err
	}
	p := &parser{
		world:     world,
		scopeName: moduleName(filename),
		filename:  filename,
		tokens:    tokens,
	}
	glog.V(1).Infof("parsing %s as module %q", filename, p.scopeName)
	if err := p.parseDirectives(); err != nil {
		return err
	}
	world.Env.injectModuleDefaults(p.scopeName, filepath.Dir(filename))
	return nil
}

func (p *parser) next() (Token, bool) {
	if p.pos >= len(p.tokens) {
		return Token{}, false
	}
	tok := p.tokens[p.pos]
	p.pos++
	return tok, true
}

func (p *parser) unexpectedEOF() error {
	return fmt.Errorf("%s: unexpected end of file", p.filename)
}

// parseDirectives consumes top-level directives until the token stream is
// exhausted, which is the normal, successful end of a build file.
func (p *parser) parseDirectives() error {
	for {
		tok, ok := p.next()
		if !ok {
			return nil
		}
		switch tok.Kind {
		case Newline:
			continue
		case Literal:
			var err error
			switch tok.Content {
			case "set":
				err = p.parseSetOrAppend(false)
			case "append":
				err = p.parseSetOrAppend(true)
			case "target":
				err = p.parseTarget()
			case "configuration":
				err = p.parseConfiguration()
			default:
				return parseErrorf(tok, "expected directive, found %q", tok.Content)
			}
			if err != nil {
				return err
			}
		default:
			return parseErrorf(tok, "expected directive, found %s", tok)
		}
	}
}

// parseSetOrAppend implements spec.md §9's normative resolution of the
// name-shadowing open question: `set $X a b c` installs `a`, then treats `b`
// and `c` as appends to the just-set variable, warning once it does so.
func (p *parser) parseSetOrAppend(isAppend bool) error {
	tok, ok := p.next()
	if !ok {
		return p.unexpectedEOF()
	}
	if tok.Kind != Variable {
		return parseErrorf(tok, "expected variable name, found %s", tok)
	}
	name := tok.Content[1:]
	scope := p.world.Env.scope(p.scopeName)

	count := 0
	for {
		tok, ok := p.next()
		if !ok {
			return p.unexpectedEOF()
		}
		if tok.Kind == Newline {
			break
		}
		frag, err := tokenToFragment(tok)
		if err != nil {
			return err
		}
		switch {
		case isAppend:
			scope.append(name, frag)
		case count == 0:
			scope.set(name, frag)
		default:
			if count == 1 {
				glog.Warningf("%s: set $%s to more than one value; treating extra values as appends", tok.Pos, name)
			}
			scope.append(name, frag)
		}
		count++
	}
	return nil
}

// parseList parses a parenthesised value list: `(fragment fragment …)`.
func (p *parser) parseList() (*Variable, error) {
	tok, ok := p.next()
	if !ok {
		return nil, p.unexpectedEOF()
	}
	if tok.Kind != OpenParen {
		return nil, parseErrorf(tok, "expected '(', found %s", tok)
	}
	v := &Variable{}
	for {
		tok, ok := p.next()
		if !ok {
			return nil, p.unexpectedEOF()
		}
		if tok.Kind == CloseParen {
			return v, nil
		}
		frag, err := tokenToFragment(tok)
		if err != nil {
			return nil, err
		}
		v.Fragments = append(v.Fragments, frag)
	}
}

// parseColonList parses an export colon list: `(first:second first:second …)`.
func (p *parser) parseColonList() ([]ExportPair, error) {
	tok, ok := p.next()
	if !ok {
		return nil, p.unexpectedEOF()
	}
	if tok.Kind != OpenParen {
		return nil, parseErrorf(tok, "expected '(', found %s", tok)
	}
	var pairs []ExportPair
	for {
		tok, ok := p.next()
		if !ok {
			return nil, p.unexpectedEOF()
		}
		if tok.Kind == CloseParen {
			return pairs, nil
		}
		firstFrag, err := tokenToFragment(tok)
		if err != nil {
			return nil, err
		}
		colonTok, ok := p.next()
		if !ok {
			return nil, p.unexpectedEOF()
		}
		if colonTok.Kind != Colon {
			return nil, parseErrorf(colonTok, "expected ':', found %s", colonTok)
		}
		nameTok, ok := p.next()
		if !ok {
			return nil, p.unexpectedEOF()
		}
		if nameTok.Kind != Variable {
			return nil, parseErrorf(nameTok, "expected variable after ':', found %s", nameTok)
		}
		pairs = append(pairs, ExportPair{Value: firstFrag, Name: nameTok.Content[1:]})
	}
}

var commonTargetKeys = map[string]func(*Common) **Variable{
	"depends_on":    func(c *Common) **Variable { return &c.DependsOn },
	"run_before":    func(c *Common) **Variable { return &c.RunBefore },
	"run_after":     func(c *Common) **Variable { return &c.RunAfter },
	"resources":     func(c *Common) **Variable { return &c.Resources },
	"visible_in":    func(c *Common) **Variable { return &c.VisibleIn },
	"artefacts":     func(c *Common) **Variable { return &c.Artefacts },
	"prerequisites": func(c *Common) **Variable { return &c.Prereqs },
}

// parseTarget parses `target TYPE NAME key (values…) key (values…) …`.
func (p *parser) parseTarget() error {
	kindTok, ok := p.next()
	if !ok {
		return p.unexpectedEOF()
	}
	if kindTok.Kind != Literal {
		return parseErrorf(kindTok, "expected target type, found %s", kindTok)
	}
	var kind TargetKind
	switch kindTok.Content {
	case "application":
		kind = KindApplication
	case "static_library":
		kind = KindStaticLibrary
	case "phony":
		kind = KindPhony
	default:
		return parseErrorf(kindTok, "unknown target type %q", kindTok.Content)
	}

	nameTok, ok := p.next()
	if !ok {
		return p.unexpectedEOF()
	}
	if nameTok.Kind != Literal {
		return parseErrorf(nameTok, "expected target name, found %s", nameTok)
	}

	common := newCommon(nameTok.Content, p.scopeName, filepath.Dir(p.filename), kindTok.Pos)

	var sources, includeDirs, compilerFlags, linkWith, libraryDirs *Variable

	for {
		tok, ok := p.next()
		if !ok {
			return p.unexpectedEOF()
		}
		if tok.Kind == Newline {
			break
		}
		if tok.Kind != Literal {
			return parseErrorf(tok, "expected target key, found %s", tok)
		}

		if field := commonTargetKeys[tok.Content]; field != nil {
			v, err := p.parseList()
			if err != nil {
				return err
			}
			*field(&common) = v
			continue
		}

		var err error
		switch tok.Content {
		case "sources":
			if kind == KindPhony {
				return parseErrorf(tok, "phony targets do not accept %q", tok.Content)
			}
			sources, err = p.parseList()
		case "include_dirs":
			if kind == KindPhony {
				return parseErrorf(tok, "phony targets do not accept %q", tok.Content)
			}
			includeDirs, err = p.parseList()
		case "compiler_flags":
			if kind == KindPhony {
				return parseErrorf(tok, "phony targets do not accept %q", tok.Content)
			}
			compilerFlags, err = p.parseList()
		case "link_with":
			if kind != KindApplication {
				return parseErrorf(tok, "only application targets accept %q", tok.Content)
			}
			linkWith, err = p.parseList()
		case "library_dirs":
			if kind != KindApplication {
				return parseErrorf(tok, "only application targets accept %q", tok.Content)
			}
			libraryDirs, err = p.parseList()
		default:
			return parseErrorf(tok, "unknown target key %q", tok.Content)
		}
		if err != nil {
			return err
		}
	}

	orEmpty := func(v *Variable) *Variable {
		if v == nil {
			return &Variable{}
		}
		return v
	}

	var target Target
	switch kind {
	case KindApplication:
		target = &Application{
			Common:        common,
			Sources:       orEmpty(sources),
			IncludeDirs:   orEmpty(includeDirs),
			CompilerFlags: orEmpty(compilerFlags),
			LinkWith:      orEmpty(linkWith),
			LibraryDirs:   orEmpty(libraryDirs),
		}
	case KindStaticLibrary:
		target = &StaticLibrary{
			Common:        common,
			Sources:       orEmpty(sources),
			IncludeDirs:   orEmpty(includeDirs),
			CompilerFlags: orEmpty(compilerFlags),
		}
	case KindPhony:
		target = &Phony{Common: common}
	}
	return p.world.Targets.Add(target)
}

// parseConfiguration parses `configuration NAME key (values…) …`.
func (p *parser) parseConfiguration() error {
	nameTok, ok := p.next()
	if !ok {
		return p.unexpectedEOF()
	}
	if nameTok.Kind != Literal {
		return parseErrorf(nameTok, "expected configuration name, found %s", nameTok)
	}
	cfg := newConfiguration(nameTok.Content)

	for {
		tok, ok := p.next()
		if !ok {
			return p.unexpectedEOF()
		}
		if tok.Kind == Newline {
			break
		}
		if tok.Kind != Literal {
			return parseErrorf(tok, "expected configuration key, found %s", tok)
		}
		var err error
		switch tok.Content {
		case "compiler":
			cfg.Compiler, err = p.parseList()
		case "archiver":
			cfg.Archiver, err = p.parseList()
		case "application_suffix":
			cfg.ApplicationSuffix, err = p.parseList()
		case "compiler_flags":
			cfg.CompilerFlags, err = p.parseList()
		case "linker_flags":
			cfg.LinkerFlags, err = p.parseList()
		case "export":
			cfg.Export, err = p.parseColonList()
		default:
			return parseErrorf(tok, "unknown configuration key %q", tok.Content)
		}
		if err != nil {
			return err
		}
	}

	p.world.Configs.Add(cfg)
	return nil
}
