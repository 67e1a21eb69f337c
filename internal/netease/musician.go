package netease

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// MusicianTask is one entry from the musician task list. Only the fields
// the reward collector consults are decoded.
type MusicianTask struct {
	UserMissionID int64  `json:"userMissionId"`
	MissionID     int64  `json:"missionId"`
	Description   string `json:"description"`
	Status        int    `json:"status"`
	Period        int    `json:"period"`
}

// TaskStatusRewardable marks a musician task whose reward is ready to be
// collected.
const TaskStatusRewardable = 20

type taskListResponse struct {
	Code    int                       `json:"code"`
	Message string                    `json:"message"`
	Data    map[string][]MusicianTask `json:"data"`
}

type boolDataResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// MusicianTasks lists the account's musician centre tasks.
func (c *Client) MusicianTasks(ctx context.Context, cookie string) ([]MusicianTask, error) {
	var resp taskListResponse
	if err := c.get(ctx, c.apiURL("/musician/tasks", cookie), "", &resp); err != nil {
		return nil, err
	}
	list, ok := resp.Data["list"]
	if !ok {
		return nil, fmt.Errorf("musician tasks response missing list (code %d)", resp.Code)
	}
	return list, nil
}

// MusicianSignIn performs the daily musician centre sign-in.
func (c *Client) MusicianSignIn(ctx context.Context, cookie string) (bool, error) {
	var resp boolDataResponse
	if err := c.get(ctx, c.apiURL("/musician/sign", cookie), "", &resp); err != nil {
		return false, err
	}
	signed, _ := resp.Data.(bool)
	return resp.Code == 200 && strings.EqualFold(resp.Message, "success") && signed, nil
}

// ReceiveTaskReward collects the cloud-bean reward of a completed task.
func (c *Client) ReceiveTaskReward(ctx context.Context, cookie string, userMissionID int64, period int) (bool, error) {
	var resp plainResponse
	u := c.apiURL("/musician/cloudbean/obtain?id="+strconv.FormatInt(userMissionID, 10)+
		"&period="+strconv.Itoa(period), cookie)
	if err := c.get(ctx, u, "", &resp); err != nil {
		return false, err
	}
	return resp.Code == 200 && strings.EqualFold(resp.Message, "success"), nil
}
