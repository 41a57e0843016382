package syncer

import (
	"encoding/json"
	"net/url"
)

func fieldsParam(fields string) url.Values {
	params := url.Values{}
	params.Set("fields", fields)
	return params
}

func unmarshalNode(body []byte, target any) error {
	return json.Unmarshal(body, target)
}
