// Package config loads kvmix settings from files and the environment.
//
// Settings are layered: package defaults first, then a YAML or JSON file
// (LoadFile), then the environment variables the driver has always read
// (NUM_KEYS, CLUSTER_PROB, WRITE_RATIO, READ_RATIO, NODES, LEADER_HOST and
// KVMIX_OUT_DIR), and finally command-line flags.
//
//	sc := scenario.DefaultConfig()
//	if fc, err := config.LoadFile("kvmix.yaml"); err == nil {
//	    sc, err = fc.ToScenarioConfig(sc)
//	}
//	err = config.ApplyEnv(config.NewEnv(), &sc)
package config
