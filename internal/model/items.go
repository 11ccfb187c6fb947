// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package model

// ItemID is the index of an item in its Arena.
type ItemID int

// NoItem marks a missing item, e.g. an unset setup.
const NoItem ItemID = -1

// Valid reports whether the ID refers to an item.
func (id ItemID) Valid() bool { return id >= 0 }

// Kind names the type of a body item.
type Kind string

const (
	KindKeyword   Kind = "KEYWORD"
	KindSetup     Kind = "SETUP"
	KindTeardown  Kind = "TEARDOWN"
	KindFor       Kind = "FOR"
	KindIteration Kind = "ITERATION"
	KindWhile     Kind = "WHILE"
	KindIf        Kind = "IF/ELSE ROOT"
	KindIfBranch  Kind = "IF/ELSE BRANCH"
	KindTry       Kind = "TRY/EXCEPT ROOT"
	KindTryBranch Kind = "TRY/EXCEPT BRANCH"
	KindVar       Kind = "VAR"
	KindReturn    Kind = "RETURN"
	KindBreak     Kind = "BREAK"
	KindContinue  Kind = "CONTINUE"
	KindError     Kind = "ERROR"
)

// Item is implemented by every body item type of this package and no other.
type Item interface {
	Kind() Kind
	sealed()
}

// Container is an item with child items.
type Container interface {
	Item
	Children() []ItemID
	setChildren([]ItemID)
}

// KeywordCall runs a keyword. Args are raw call-site tokens, including
// "name=value" tokens; Named holds named arguments set programmatically.
// Assign holds targets such as "${x}" or "@{rest} =".
type KeywordCall struct {
	Name   string
	Args   []string
	Named  map[string]string
	Assign []string
	Lineno int
}

func (*KeywordCall) Kind() Kind { return KindKeyword }
func (*KeywordCall) sealed()    {}

// ForMode is the flavor of a FOR loop.
type ForMode string

const (
	ForIn          ForMode = "IN"
	ForInRange     ForMode = "IN RANGE"
	ForInEnumerate ForMode = "IN ENUMERATE"
	ForInZip       ForMode = "IN ZIP"
)

// ForLoop iterates over Values. Start applies to IN ENUMERATE, ZipMode
// (shortest, longest or strict) and Fill to IN ZIP. Limit and OnLimit
// bound the iteration count like in WhileLoop.
type ForLoop struct {
	Vars           []string
	Mode           ForMode
	Values         []string
	Start          string
	ZipMode        string
	Fill           string
	Limit          string
	OnLimit        string
	OnLimitMessage string
	Body           []ItemID
}

func (*ForLoop) Kind() Kind                 { return KindFor }
func (*ForLoop) sealed()                    {}
func (l *ForLoop) Children() []ItemID       { return l.Body }
func (l *ForLoop) setChildren(ids []ItemID) { l.Body = ids }

// WhileLoop runs its body while Condition holds. An empty condition loops
// until the body stops it or the limit is reached. OnLimit is "pass" or
// "fail" (the default).
type WhileLoop struct {
	Condition      string
	Limit          string
	OnLimit        string
	OnLimitMessage string
	Body           []ItemID
}

func (*WhileLoop) Kind() Kind                 { return KindWhile }
func (*WhileLoop) sealed()                    {}
func (l *WhileLoop) Children() []ItemID       { return l.Body }
func (l *WhileLoop) setChildren(ids []ItemID) { l.Body = ids }

// BranchType is the type of an IF or TRY branch.
type BranchType string

const (
	BranchIf      BranchType = "IF"
	BranchElseIf  BranchType = "ELSE IF"
	BranchElse    BranchType = "ELSE"
	BranchTry     BranchType = "TRY"
	BranchExcept  BranchType = "EXCEPT"
	BranchFinally BranchType = "FINALLY"
)

// IfChain holds IfBranch items in order.
type IfChain struct {
	Branches []ItemID
}

func (*IfChain) Kind() Kind                 { return KindIf }
func (*IfChain) sealed()                    {}
func (c *IfChain) Children() []ItemID       { return c.Branches }
func (c *IfChain) setChildren(ids []ItemID) { c.Branches = ids }

// IfBranch is one IF, ELSE IF or ELSE branch. ELSE has no condition.
type IfBranch struct {
	Type      BranchType
	Condition string
	Body      []ItemID
}

func (*IfBranch) Kind() Kind                 { return KindIfBranch }
func (*IfBranch) sealed()                    {}
func (b *IfBranch) Children() []ItemID       { return b.Body }
func (b *IfBranch) setChildren(ids []ItemID) { b.Body = ids }

// TryChain holds TryBranch items: TRY, EXCEPT branches, ELSE, FINALLY.
type TryChain struct {
	Branches []ItemID
}

func (*TryChain) Kind() Kind                 { return KindTry }
func (*TryChain) sealed()                    {}
func (c *TryChain) Children() []ItemID       { return c.Branches }
func (c *TryChain) setChildren(ids []ItemID) { c.Branches = ids }

// TryBranch is one branch of a TryChain. EXCEPT branches match the failure
// message against Patterns using PatternType (glob, regexp, start or
// literal, the default) and may bind it to Assign.
type TryBranch struct {
	Type        BranchType
	Patterns    []string
	PatternType string
	Assign      string
	Body        []ItemID
}

func (*TryBranch) Kind() Kind                 { return KindTryBranch }
func (*TryBranch) sealed()                    {}
func (b *TryBranch) Children() []ItemID       { return b.Body }
func (b *TryBranch) setChildren(ids []ItemID) { b.Body = ids }

// VarAssign creates a variable. Scope is LOCAL (default), TEST, SUITE,
// SUITES or GLOBAL. Separator joins several scalar values.
type VarAssign struct {
	Name      string
	Values    []string
	Scope     string
	Separator string
}

func (*VarAssign) Kind() Kind { return KindVar }
func (*VarAssign) sealed()    {}

// Return leaves the enclosing user keyword with Values.
type Return struct {
	Values []string
}

func (*Return) Kind() Kind { return KindReturn }
func (*Return) sealed()    {}

// Break leaves the enclosing loop.
type Break struct{}

func (*Break) Kind() Kind { return KindBreak }
func (*Break) sealed()    {}

// Continue skips to the next loop iteration.
type Continue struct{}

func (*Continue) Kind() Kind { return KindContinue }
func (*Continue) sealed()    {}

// Error is invalid data kept in the tree so it fails when reached.
type Error struct {
	Message string
	Values  []string
}

func (*Error) Kind() Kind { return KindError }
func (*Error) sealed()    {}
