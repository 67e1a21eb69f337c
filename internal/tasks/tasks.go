package tasks

import (
	"context"
	"fmt"
	"log"

	"github.com/LamGC/Auto-Musician/internal/netease"
	"github.com/LamGC/Auto-Musician/internal/store"
)

// MusicianAPI is the platform surface the automated account tasks consume.
// *netease.Client satisfies it.
type MusicianAPI interface {
	GetUserAccount(ctx context.Context, cookie string) (netease.UserAccount, error)
	MusicianTasks(ctx context.Context, cookie string) ([]netease.MusicianTask, error)
	MusicianSignIn(ctx context.Context, cookie string) (bool, error)
	ReceiveTaskReward(ctx context.Context, cookie string, userMissionID int64, period int) (bool, error)
}

// Task runs one automated action for a single stored account.
type Task interface {
	Name() string
	Run(ctx context.Context, account *store.Account) error
}

// SignIn performs the daily musician centre sign-in. Accounts that are not
// platform creators are skipped; the musician centre rejects them anyway.
type SignIn struct {
	api MusicianAPI
}

func NewSignIn(api MusicianAPI) *SignIn {
	return &SignIn{api: api}
}

func (t *SignIn) Name() string { return "musician-sign-in" }

func (t *SignIn) Run(ctx context.Context, account *store.Account) error {
	creator, err := isCreator(ctx, t.api, account)
	if err != nil || !creator {
		return err
	}

	signed, err := t.api.MusicianSignIn(ctx, account.Cookies)
	if err != nil {
		return fmt.Errorf("sign-in request: %w", err)
	}
	if signed {
		log.Printf("Musician %d signed in.", account.UserID)
	} else {
		log.Printf("Musician %d sign-in rejected, possibly already signed in today.", account.UserID)
	}
	return nil
}

// RewardCollector claims cloud-bean rewards for every completed musician
// task of a creator account.
type RewardCollector struct {
	api MusicianAPI
}

func NewRewardCollector(api MusicianAPI) *RewardCollector {
	return &RewardCollector{api: api}
}

func (t *RewardCollector) Name() string { return "cloud-bean-rewards" }

func (t *RewardCollector) Run(ctx context.Context, account *store.Account) error {
	creator, err := isCreator(ctx, t.api, account)
	if err != nil || !creator {
		return err
	}

	list, err := t.api.MusicianTasks(ctx, account.Cookies)
	if err != nil {
		return fmt.Errorf("task list: %w", err)
	}

	for _, mt := range list {
		if mt.Status != netease.TaskStatusRewardable {
			continue
		}
		received, err := t.api.ReceiveTaskReward(ctx, account.Cookies, mt.UserMissionID, mt.Period)
		if err != nil {
			return fmt.Errorf("reward %d: %w", mt.UserMissionID, err)
		}
		if received {
			log.Printf("Collected reward of task %q for user %d.", mt.Description, account.UserID)
		}
	}
	return nil
}

func isCreator(ctx context.Context, api MusicianAPI, account *store.Account) (bool, error) {
	info, err := api.GetUserAccount(ctx, account.Cookies)
	if err != nil {
		return false, fmt.Errorf("account lookup: %w", err)
	}
	return info.Creator, nil
}
