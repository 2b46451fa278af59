package activity

import (
	"fmt"
	"testing"
	"time"

	"github.com/spiffcs/activity/internal/github"
	"github.com/spiffcs/activity/internal/model"
)

// nodeOpts holds optional fields for building test nodes
type nodeOpts struct {
	Author     *github.Actor
	MergedBy   *github.Actor
	MergeOID   string
	BaseRef    string
	Labels     []string
	ClosedAt   *time.Time
	State      string
	Reviewers  []*github.Actor
	Committers []committer
	Commenters []*github.Actor
}

// committer is one commit identity: login when the platform account
// exists, bare git name otherwise.
type committer struct {
	login string
	name  string
}

func user(login string) *github.Actor {
	return &github.Actor{Typename: "User", Login: login}
}

func bot(login string) *github.Actor {
	return &github.Actor{Typename: "Bot", Login: login}
}

// makeNode builds a raw search node. kind controls the URL shape, which
// is what normalization keys off.
func makeNode(id string, kind model.Kind, number int, opts *nodeOpts) github.Node {
	segment := "pull"
	if kind == model.KindIssue {
		segment = "issues"
	}
	n := github.Node{
		ID:        id,
		State:     "OPEN",
		Title:     fmt.Sprintf("Item %d", number),
		URL:       fmt.Sprintf("https://github.com/jupyter/notebook/%s/%d", segment, number),
		Number:    number,
		CreatedAt: time.Date(2019, 10, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2019, 10, 2, 0, 0, 0, 0, time.UTC),
	}
	if opts == nil {
		return n
	}

	n.Author = opts.Author
	n.MergedBy = opts.MergedBy
	n.BaseRefName = opts.BaseRef
	n.ClosedAt = opts.ClosedAt
	if opts.State != "" {
		n.State = opts.State
	}
	if opts.MergeOID != "" {
		n.MergeCommit = &struct {
			OID string `json:"oid"`
		}{OID: opts.MergeOID}
	}
	for _, label := range opts.Labels {
		n.Labels.Edges = append(n.Labels.Edges, struct {
			Node struct {
				Name string `json:"name"`
			} `json:"node"`
		}{})
		n.Labels.Edges[len(n.Labels.Edges)-1].Node.Name = label
	}
	for _, reviewer := range opts.Reviewers {
		edge := struct {
			Node struct {
				Author *github.Actor `json:"author"`
			} `json:"node"`
		}{}
		edge.Node.Author = reviewer
		n.Reviews.Edges = append(n.Reviews.Edges, edge)
	}
	for _, c := range opts.Committers {
		edge := struct {
			Node struct {
				Commit struct {
					Author struct {
						Name string        `json:"name"`
						User *github.Actor `json:"user"`
					} `json:"author"`
				} `json:"commit"`
			} `json:"node"`
		}{}
		if c.login != "" {
			edge.Node.Commit.Author.User = user(c.login)
		}
		edge.Node.Commit.Author.Name = c.name
		n.Commits.Edges = append(n.Commits.Edges, edge)
	}
	for i, commenter := range opts.Commenters {
		edge := struct {
			Node struct {
				CreatedAt time.Time     `json:"createdAt"`
				URL       string        `json:"url"`
				Author    *github.Actor `json:"author"`
			} `json:"node"`
		}{}
		edge.Node.Author = commenter
		edge.Node.CreatedAt = n.CreatedAt.Add(time.Duration(i) * time.Hour)
		edge.Node.URL = fmt.Sprintf("%s#comment-%d", n.URL, i)
		n.Comments.Edges = append(n.Comments.Edges, edge)
	}
	return n
}

func TestNormalize(t *testing.T) {
	t.Run("kind derived from url", func(t *testing.T) {
		items := Normalize([]github.Node{
			makeNode("i1", model.KindIssue, 1, nil),
			makeNode("p1", model.KindPullRequest, 2, nil),
		})
		if items[0].Kind != model.KindIssue {
			t.Errorf("Kind = %q, want issue", items[0].Kind)
		}
		if items[1].Kind != model.KindPullRequest {
			t.Errorf("Kind = %q, want pr", items[1].Kind)
		}
	})

	t.Run("org and repo from url", func(t *testing.T) {
		items := Normalize([]github.Node{makeNode("i1", model.KindIssue, 1, nil)})
		if items[0].Org != "jupyter" || items[0].Repo != "notebook" {
			t.Errorf("org/repo = %s/%s", items[0].Org, items[0].Repo)
		}
	})

	t.Run("null author tolerated", func(t *testing.T) {
		items := Normalize([]github.Node{makeNode("i1", model.KindIssue, 1, &nodeOpts{
			Commenters: []*github.Actor{nil, user("alice")},
		})})
		if items[0].Author != "" {
			t.Errorf("Author = %q, want empty", items[0].Author)
		}
		if len(items[0].Comments) != 2 {
			t.Fatalf("Comments = %d, want 2", len(items[0].Comments))
		}
		if items[0].Comments[0].Author != "" {
			t.Error("deleted commenter should have an empty author")
		}
		if items[0].Comments[1].Author != "alice" {
			t.Errorf("comment author = %q", items[0].Comments[1].Author)
		}
	})

	t.Run("committers keep duplicates and fall back to git names", func(t *testing.T) {
		items := Normalize([]github.Node{makeNode("p1", model.KindPullRequest, 2, &nodeOpts{
			Committers: []committer{
				{login: "alice"},
				{login: "alice"},
				{name: "Ada Lovelace"}, // no platform account
			},
		})})
		want := []string{"alice", "alice", "Ada Lovelace"}
		got := items[0].Committers
		if len(got) != len(want) {
			t.Fatalf("Committers = %v, want %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("Committers[%d] = %q, want %q", i, got[i], want[i])
			}
		}
	})

	t.Run("reviewers are deduplicated", func(t *testing.T) {
		items := Normalize([]github.Node{makeNode("p1", model.KindPullRequest, 2, &nodeOpts{
			Reviewers: []*github.Actor{user("bob"), user("bob"), nil, user("carol")},
		})})
		if len(items[0].Reviewers) != 2 {
			t.Errorf("Reviewers = %v, want [bob carol]", items[0].Reviewers)
		}
	})

	t.Run("duplicate ids keep first occurrence", func(t *testing.T) {
		created := makeNode("42", model.KindPullRequest, 42, &nodeOpts{Author: user("alice")})
		closed := makeNode("42", model.KindPullRequest, 42, &nodeOpts{Author: user("alice")})
		items := Normalize([]github.Node{created, closed})
		if len(items) != 1 {
			t.Fatalf("got %d items, want 1", len(items))
		}
		if items[0].ID != "42" {
			t.Errorf("ID = %q", items[0].ID)
		}
	})

	t.Run("idempotent over deduplicated output", func(t *testing.T) {
		nodes := []github.Node{
			makeNode("1", model.KindIssue, 1, nil),
			makeNode("2", model.KindPullRequest, 2, nil),
			makeNode("1", model.KindIssue, 1, nil),
		}
		first := Normalize(nodes)

		// Rebuild raw nodes from the surviving IDs and normalize again.
		var again []github.Node
		for _, item := range first {
			again = append(again, makeNode(item.ID, item.Kind, item.Number, nil))
		}
		second := Normalize(again)

		if len(first) != len(second) {
			t.Fatalf("item count changed: %d -> %d", len(first), len(second))
		}
		for i := range first {
			if first[i].ID != second[i].ID {
				t.Errorf("order changed at %d: %q vs %q", i, first[i].ID, second[i].ID)
			}
		}
	})
}

func TestDetectBots(t *testing.T) {
	closedAt := time.Date(2019, 10, 15, 0, 0, 0, 0, time.UTC)
	nodes := []github.Node{
		makeNode("p1", model.KindPullRequest, 1, &nodeOpts{
			Author:     bot("dependabot"),
			MergedBy:   user("alice"),
			ClosedAt:   &closedAt,
			Reviewers:  []*github.Actor{bot("codecov")},
			Commenters: []*github.Actor{bot("github-actions"), user("bob")},
		}),
		makeNode("i1", model.KindIssue, 2, &nodeOpts{Author: user("carol")}),
	}

	bots := DetectBots(nodes)

	for _, name := range []string{"dependabot", "codecov", "github-actions"} {
		if !bots.Contains(name) {
			t.Errorf("expected %q in bot set", name)
		}
	}
	for _, name := range []string{"alice", "bob", "carol"} {
		if bots.Contains(name) {
			t.Errorf("%q should not be in bot set", name)
		}
	}
}
