package persist

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/dshills/humane/internal/engine/history"
)

// Batch is one flushed group of commands from the change log.
type Batch struct {
	Generation string
	Seq        int
	At         time.Time
	Commands   history.List

	// Line is the change log line the batch was read from.
	Line int
}

// encodeBatch builds one change log line, without the trailing newline.
func encodeBatch(generation string, seq int, at time.Time, cmds [][]byte) ([]byte, error) {
	line, err := sjson.SetBytes([]byte(`{}`), "gen", generation)
	if err != nil {
		return nil, err
	}
	if line, err = sjson.SetBytes(line, "seq", seq); err != nil {
		return nil, err
	}
	if line, err = sjson.SetBytes(line, "at", at.UTC().Format(time.RFC3339Nano)); err != nil {
		return nil, err
	}
	list := append([]byte{'['}, bytes.Join(cmds, []byte{','})...)
	list = append(list, ']')
	return sjson.SetRawBytes(line, "commands", list)
}

func decodeBatch(line []byte) (Batch, error) {
	if !gjson.ValidBytes(line) {
		return Batch{}, errors.New("invalid JSON")
	}
	fields := gjson.GetManyBytes(line, "gen", "seq", "at", "commands")
	if fields[0].Type != gjson.String || fields[1].Type != gjson.Number {
		return Batch{}, errors.New("missing generation or sequence")
	}
	b := Batch{Generation: fields[0].Str, Seq: int(fields[1].Int())}
	if fields[2].Exists() {
		at, err := time.Parse(time.RFC3339Nano, fields[2].Str)
		if err != nil {
			return Batch{}, fmt.Errorf("timestamp: %w", err)
		}
		b.At = at
	}
	if !fields[3].IsArray() {
		return Batch{}, errors.New("missing command list")
	}
	if err := json.Unmarshal([]byte(fields[3].Raw), &b.Commands); err != nil {
		return Batch{}, err
	}
	return b, nil
}
