package activity

import (
	"github.com/spiffcs/activity/internal/github"
	"github.com/spiffcs/activity/internal/log"
	"github.com/spiffcs/activity/internal/model"
)

// DetectBots scans raw nodes for identities the platform reports as
// automation accounts. The raw payload is the only place the account
// type survives, so this runs before normalization flattens actors to
// login strings. The returned set is paired with the normalized items
// for the rest of the run.
func DetectBots(nodes []github.Node) model.BotSet {
	bots := model.BotSet{}
	record := func(a *github.Actor) {
		if a != nil && a.Typename == "Bot" {
			bots.Add(a.Login)
		}
	}

	for i := range nodes {
		n := &nodes[i]
		record(n.Author)
		record(n.MergedBy)
		for _, e := range n.Reviews.Edges {
			record(e.Node.Author)
		}
		for _, e := range n.Commits.Edges {
			record(e.Node.Commit.Author.User)
		}
		for _, e := range n.Comments.Edges {
			record(e.Node.Author)
		}
	}

	if len(bots) > 0 {
		log.Debug("detected automation accounts", "count", len(bots))
	}
	return bots
}
