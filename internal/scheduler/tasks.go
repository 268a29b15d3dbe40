package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskRetrainCheck = "model.retrain_check"

const TaskRescoreLeads = "leads.rescore"

type RetrainCheckPayload struct {
	Reason string `json:"reason"`
}

type RescoreLeadsPayload struct {
	OlderThanHours int `json:"olderThanHours"`
	Limit          int `json:"limit"`
}

func NewRetrainCheckTask(payload RetrainCheckPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRetrainCheck, data), nil
}

func ParseRetrainCheckPayload(task *asynq.Task) (RetrainCheckPayload, error) {
	var payload RetrainCheckPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return RetrainCheckPayload{}, err
	}
	return payload, nil
}

func NewRescoreLeadsTask(payload RescoreLeadsPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRescoreLeads, data), nil
}

func ParseRescoreLeadsPayload(task *asynq.Task) (RescoreLeadsPayload, error) {
	var payload RescoreLeadsPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return RescoreLeadsPayload{}, err
	}
	return payload, nil
}
