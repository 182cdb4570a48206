package teleop

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/gwillem/lerobot-filter/pkg/robot"
)

// sessionLog writes one CSV row per control tick with the raw and filtered
// position of every motor, for offline analysis of filter behavior.
type sessionLog struct {
	file   *os.File
	w      *csv.Writer
	motors []robot.MotorName
	start  time.Time
}

func newSessionLog(path string) (*sessionLog, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	motors := robot.AllMotors()
	header := []string{"elapsed_s"}
	for _, m := range motors {
		header = append(header, "raw_"+string(m))
	}
	for _, m := range motors {
		header = append(header, "filtered_"+string(m))
	}

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		f.Close()
		return nil, err
	}

	return &sessionLog{file: f, w: w, motors: motors, start: time.Now()}, nil
}

func (l *sessionLog) Write(now time.Time, raw, filtered map[robot.MotorName]float64) error {
	row := make([]string, 0, 1+2*len(l.motors))
	row = append(row, fmt.Sprintf("%.4f", now.Sub(l.start).Seconds()))
	for _, m := range l.motors {
		row = append(row, strconv.FormatFloat(raw[m], 'f', 3, 64))
	}
	for _, m := range l.motors {
		row = append(row, strconv.FormatFloat(filtered[m], 'f', 3, 64))
	}
	if err := l.w.Write(row); err != nil {
		return err
	}
	l.w.Flush()
	return l.w.Error()
}

func (l *sessionLog) Close() error {
	l.w.Flush()
	if err := l.w.Error(); err != nil {
		l.file.Close()
		return err
	}
	return l.file.Close()
}
