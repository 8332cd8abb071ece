// Package main demonstrates basic hornchain usage patterns.
//
// This is not a polished CLI — the embedding API in pkg/logic is the
// product; this binary just exercises it end to end the way a new
// consumer of the package would.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/clauseware/hornchain/internal/kbfile"
	"github.com/clauseware/hornchain/pkg/logic"
)

func main() {
	fmt.Println("=== hornchain examples ===")
	fmt.Println()

	familyTree()
	comparisonBuiltins()
	disjunction()
	fileBacked()
}

// familyTree demonstrates asserting facts and a rule, then querying it.
func familyTree() {
	fmt.Println("1. Family tree (facts + rule):")

	engine, err := logic.New(logic.WithMaxSolutions(10))
	if err != nil {
		fmt.Println("   error:", err)
		return
	}

	must(engine.AddFact("parent", logic.Atom("david"), logic.Atom("john")))
	must(engine.AddFact("parent", logic.Atom("john"), logic.Atom("mary")))
	must(engine.AddFact("parent", logic.Atom("john"), logic.Atom("peter")))
	must(engine.AddRule(
		logic.Compound{Name: "grandparent", Args: []logic.Term{logic.Var("?A"), logic.Var("?C")}},
		logic.Compound{Name: "parent", Args: []logic.Term{logic.Var("?A"), logic.Var("?P")}},
		logic.Compound{Name: "parent", Args: []logic.Term{logic.Var("?P"), logic.Var("?C")}},
	))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	rs, err := engine.Query(ctx, "grandparent", []logic.Term{logic.Var("?A"), logic.Var("?C")})
	if err != nil {
		fmt.Println("   error:", err)
		return
	}
	defer rs.Close()

	for {
		b, err, ok := rs.Next(ctx)
		if err != nil {
			fmt.Println("   error:", err)
			return
		}
		if !ok {
			break
		}
		fmt.Printf("   grandparent(%s, %s)\n", logic.ToDisplay(b[logic.Var("?A")]), logic.ToDisplay(b[logic.Var("?C")]))
	}
	fmt.Println()
}

// comparisonBuiltins demonstrates the numeric comparison built-ins.
func comparisonBuiltins() {
	fmt.Println("2. Built-in predicates (gt):")

	engine, err := logic.New()
	if err != nil {
		fmt.Println("   error:", err)
		return
	}
	must(engine.AddRule(
		logic.Compound{Name: "adult", Args: []logic.Term{logic.Var("?Age")}},
		logic.Compound{Name: "gt", Args: []logic.Term{logic.Var("?Age"), logic.Int(17)}},
	))

	ctx := context.Background()
	ok, err := engine.Exists(ctx, "adult", []logic.Term{logic.Int(25)})
	fmt.Printf("   adult(25) => %v (err=%v)\n", ok, err)

	ok, err = engine.Exists(ctx, "adult", []logic.Term{logic.Int(10)})
	fmt.Printf("   adult(10) => %v (err=%v)\n", ok, err)
	fmt.Println()
}

// disjunction demonstrates the or built-in trying alternative rule
// calls.
func disjunction() {
	fmt.Println("3. Disjunction over rule calls (or):")

	engine, err := logic.New()
	if err != nil {
		fmt.Println("   error:", err)
		return
	}
	must(engine.AddFact("likes", logic.Atom("alice"), logic.Atom("tea")))
	must(engine.AddFact("likes", logic.Atom("bob"), logic.Atom("coffee")))
	must(engine.AddRule(
		logic.Compound{Name: "drinker", Args: []logic.Term{logic.Var("?Who")}},
		logic.Compound{Name: "or", Args: []logic.Term{
			logic.Compound{Name: "likes", Args: []logic.Term{logic.Var("?Who"), logic.Atom("tea")}},
			logic.Compound{Name: "likes", Args: []logic.Term{logic.Var("?Who"), logic.Atom("coffee")}},
		}},
	))

	ctx := context.Background()
	rs, err := engine.Query(ctx, "drinker", []logic.Term{logic.Var("?Who")})
	if err != nil {
		fmt.Println("   error:", err)
		return
	}
	defer rs.Close()
	for {
		b, err, ok := rs.Next(ctx)
		if err != nil || !ok {
			break
		}
		fmt.Printf("   drinker(%s)\n", logic.ToDisplay(b[logic.Var("?Who")]))
	}
	fmt.Println()
}

// fileBacked demonstrates loading a knowledge base from the kbfile text
// format.
func fileBacked() {
	fmt.Println("4. File-backed knowledge base:")

	tmp, err := os.CreateTemp("", "hornchain-demo-*.kb")
	if err != nil {
		fmt.Println("   error:", err)
		return
	}
	defer os.Remove(tmp.Name())
	_, _ = tmp.WriteString(`facts:
  parent(david, john).
  parent(john, mary).

rules:
  grandparent(?A, ?C) :-
      parent(?A, ?P),
      parent(?P, ?C).
`)
	tmp.Close()

	engine, err := logic.New()
	if err != nil {
		fmt.Println("   error:", err)
		return
	}
	if err := kbfile.LoadFile(engine, tmp.Name()); err != nil {
		fmt.Println("   error:", err)
		return
	}

	ctx := context.Background()
	b, ok, err := engine.QueryOne(ctx, "grandparent", []logic.Term{logic.Atom("david"), logic.Var("?C")})
	fmt.Printf("   grandparent(david, ?C) => ok=%v b=%v err=%v\n", ok, b, err)
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
