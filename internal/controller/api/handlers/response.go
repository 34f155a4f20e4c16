package handlers

// StatusBody is the generic "it worked" response body.
type StatusBody struct {
	Status string `json:"status" doc:"Operation result"`
}

type StatusOutput struct {
	Body StatusBody
}

func okStatus() *StatusOutput {
	return &StatusOutput{Body: StatusBody{Status: "ok"}}
}
