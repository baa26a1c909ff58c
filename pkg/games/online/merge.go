package online

import (
	"fmt"

	"github.com/fadedpez/reverseroulette/internal/metrics"
	"github.com/fadedpez/reverseroulette/pkg/entities"
	"github.com/fadedpez/reverseroulette/pkg/games/common"
	"github.com/fadedpez/reverseroulette/pkg/services/roulette"
)

// ActionResult is what a merge pass did with one queued action
type ActionResult struct {
	Action  entities.Action
	Outcome string // metrics.Outcome*
	Reason  string
}

// MergeReport describes one merge pass
type MergeReport struct {
	// Results has one entry per consumed action, in queue order
	Results []ActionResult
	// Joined lists players added by this pass
	Joined []entities.Player
	// Spin is the accepted bet, if any. Its announcement is already logged
	// and the actions queued after it were left for the next pass.
	Spin *roulette.PendingSpin
}

// Consumed returns the ids of every action the pass removed from the queue
func (r MergeReport) Consumed() []string {
	ids := make([]string, 0, len(r.Results))
	for _, res := range r.Results {
		ids = append(ids, res.Action.ActionID)
	}
	return ids
}

// Changed reports whether the pass touched the queue or the game
func (r MergeReport) Changed() bool {
	return len(r.Results) > 0
}

// Merge applies a document's queued guest actions in arrival order. An id
// seen earlier in the pass, or listed in processed, is a duplicate and is
// dropped. A Join claims the next free id while the lobby is open. A Bet is
// applied only for the player whose turn it is; the first accepted bet ends
// the pass. Out-of-turn bets and invalid actions are dropped. The input
// document is not modified.
func Merge(doc entities.OnlineGameState, processed map[string]bool) (entities.OnlineGameState, MergeReport) {
	out := doc.Clone()
	out.GuestActions = nil

	var report MergeReport
	pass := make(map[string]bool, len(doc.GuestActions))

	for i, action := range doc.GuestActions {
		if report.Spin != nil {
			out.GuestActions = append(out.GuestActions, doc.GuestActions[i:]...)
			break
		}

		if pass[action.ActionID] || processed[action.ActionID] {
			report.Results = append(report.Results, ActionResult{Action: action, Outcome: metrics.OutcomeDuplicate})
			continue
		}
		pass[action.ActionID] = true

		var res ActionResult
		switch action.Type {
		case entities.ActionJoin:
			res = applyJoin(&out, action, &report)
		case entities.ActionBet:
			res = applyBet(&out, action, &report)
		default:
			res = ActionResult{Action: action, Outcome: metrics.OutcomeRejected, Reason: fmt.Sprintf("unknown action type %q", action.Type)}
		}
		report.Results = append(report.Results, res)
	}

	return out, report
}

func applyJoin(doc *entities.OnlineGameState, action entities.Action, report *MergeReport) ActionResult {
	reject := func(reason string) ActionResult {
		return ActionResult{Action: action, Outcome: metrics.OutcomeRejected, Reason: reason}
	}

	payload, err := action.Join()
	if err != nil {
		return reject(err.Error())
	}
	if doc.Status != entities.StatusLobby {
		return ActionResult{Action: action, Outcome: metrics.OutcomeStale, Reason: "game already started"}
	}
	name, err := common.NormalizeName(payload.Name)
	if err != nil {
		return reject(err.Error())
	}
	if _, taken := common.FindByName(doc.Players, name); taken {
		return reject(fmt.Sprintf("name %q is taken", name))
	}
	if len(doc.Players) >= entities.MaxOnlinePlayers {
		return reject("lobby is full")
	}

	player := common.NewPlayer(common.NextID(doc.Players), name)
	doc.Players = append(doc.Players, player)
	state := doc.State()
	state.AddLog(fmt.Sprintf("%s joined the game.", player.Name))
	doc.GameLog = state.Log
	report.Joined = append(report.Joined, player)

	return ActionResult{Action: action, Outcome: metrics.OutcomeMerged}
}

func applyBet(doc *entities.OnlineGameState, action entities.Action, report *MergeReport) ActionResult {
	payload, err := action.Bet()
	if err != nil {
		return ActionResult{Action: action, Outcome: metrics.OutcomeRejected, Reason: err.Error()}
	}
	if doc.Status != entities.StatusPlaying {
		return ActionResult{Action: action, Outcome: metrics.OutcomeStale, Reason: fmt.Sprintf("game is %s", doc.Status)}
	}

	state := doc.State()
	current, ok := state.CurrentPlayer()
	if !ok || current.ID != action.PlayerID {
		return ActionResult{Action: action, Outcome: metrics.OutcomeStale, Reason: "not this player's turn"}
	}

	next, spin, err := roulette.StartSpin(state, action.PlayerID, payload.Bet, payload.Amount)
	if err != nil {
		return ActionResult{Action: action, Outcome: metrics.OutcomeRejected, Reason: err.Error()}
	}
	doc.ApplyState(next)
	report.Spin = &spin

	return ActionResult{Action: action, Outcome: metrics.OutcomeMerged}
}
