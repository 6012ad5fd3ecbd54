package service

import (
	"fmt"

	"github.com/voyagen/xtreamgate/internal/xtream"
)

// Action is a supported player_api.php action.
type Action int

const (
	ActionAccountInfo Action = iota
	ActionLiveStreams
	ActionLiveCategories
	ActionVodStreams
	ActionVodCategories
	ActionSeries
	ActionSeriesCategories
	ActionFullEpg
	ActionShortEpg
	ActionVodInfo
	ActionSeriesInfo
)

var actionNames = map[string]Action{
	xtream.ActionLiveStreams:      ActionLiveStreams,
	xtream.ActionLiveCategories:   ActionLiveCategories,
	xtream.ActionVodStreams:       ActionVodStreams,
	xtream.ActionVodCategories:    ActionVodCategories,
	xtream.ActionSeries:           ActionSeries,
	xtream.ActionSeriesCategories: ActionSeriesCategories,
	xtream.ActionFullEpg:          ActionFullEpg,
	xtream.ActionShortEpg:         ActionShortEpg,
	xtream.ActionVodInfo:          ActionVodInfo,
	xtream.ActionSeriesInfo:       ActionSeriesInfo,
}

// ParseAction resolves the action query parameter. An empty name means
// account info; unknown names wrap ErrNotImplemented.
func ParseAction(name string) (Action, error) {
	if name == "" {
		return ActionAccountInfo, nil
	}
	if a, ok := actionNames[name]; ok {
		return a, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrNotImplemented, name)
}

func (a Action) String() string {
	for name, v := range actionNames {
		if v == a {
			return name
		}
	}
	if a == ActionAccountInfo {
		return "account_info"
	}
	return fmt.Sprintf("Action(%d)", int(a))
}
