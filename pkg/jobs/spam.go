package jobs

import (
	"github.com/pkg/errors"

	"github.com/MarinaBorodkina/SPARK/pkg/data"
	"github.com/MarinaBorodkina/SPARK/pkg/dataprep"
	"github.com/MarinaBorodkina/SPARK/pkg/frame"
	"github.com/MarinaBorodkina/SPARK/pkg/model"
	"github.com/MarinaBorodkina/SPARK/pkg/pipeline"
)

const (
	smsFeatures = 1024
	smsRegParam = 0.2
)

// SMSSchema is the layout of the headerless, semicolon-separated SMS file.
var SMSSchema = frame.NewSchema(
	frame.Field{Name: "id", Type: frame.Int},
	frame.Field{Name: "text", Type: frame.String},
	frame.Field{Name: model.LabelCol, Type: frame.Int},
)

// LoadSMS reads the SMS file and drops rows with a missing field.
func (r *Runner) LoadSMS() (*frame.Frame, error) {
	return r.s.LoadCSV(r.cfg.Data.SMSPath, data.CSVOptions{
		Delimiter:   ';',
		Header:      false,
		Schema:      &SMSSchema,
		DropInvalid: true,
	})
}

// CleanText replaces punctuation and digits in the text column with
// spaces and collapses runs of spaces.
func CleanText(f *frame.Frame) (*frame.Frame, error) {
	text := frame.Col("text").
		RegexpReplace(`[_():;,.!?\-]`, " ").
		RegexpReplace(`[0-9]`, " ").
		RegexpReplace(` +`, " ")
	return f.WithColumn("text", text)
}

func spamPipeline() *pipeline.Pipeline {
	lr := model.NewLogisticRegression()
	lr.RegParam = smsRegParam
	return pipeline.New(
		&dataprep.Tokenizer{InputCol: "text", OutputCol: "words"},
		&dataprep.StopWordsRemover{InputCol: "words", OutputCol: "terms"},
		&dataprep.HashingTF{InputCol: "terms", OutputCol: "hash", NumFeatures: smsFeatures},
		&dataprep.IDF{InputCol: "hash", OutputCol: model.FeaturesCol},
		lr,
	)
}

// SpamFilter trains a text classifier that flags spam messages.
func (r *Runner) SpamFilter() (*ClassificationReport, error) {
	f, err := r.LoadSMS()
	if err != nil {
		return nil, err
	}
	if f, err = CleanText(f); err != nil {
		return nil, errors.Wrap(err, "jobs: clean sms text")
	}
	return r.classify(f, spamPipeline(), "spam logistic")
}
