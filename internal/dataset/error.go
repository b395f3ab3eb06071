package dataset

// newErrorDataset builds the fallback "error" kind (spec §4.5: "a
// fallback dataset into which messages that failed dispatch are
// stored with a failure note"). It is otherwise a plain local dataset
// (indexed, queryable, same segment-per-step storage) — the failure
// NOTE itself is attached by the Dispatcher before it calls Acquire,
// not by the dataset.
func newErrorDataset(cfg Config) (Dataset, error) {
	if cfg.Step == "" {
		cfg.Step = string(StepDaily)
	}
	ds, err := newLocalDataset(cfg)
	if err != nil {
		return nil, err
	}
	ds.(*localDataset).kind = "error"
	return ds, nil
}
