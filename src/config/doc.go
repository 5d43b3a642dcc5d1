// Package config defines the configuration for a Meridian node.
//
// Regardless of how Meridian is started, directly from Go code or as a
// standalone process from the command line, it uses the Config object defined
// in this package to store and forward configuration options. On top of these
// options, Meridian relies on a data directory, defined by Config.DataDir,
// where it expects to find a few additional configuration files:
//
//  priv_key.pem // the node's identity key (cf. meridian keygen).
//  peers.json // a JSON file containing the list of remote endpoints to dial at startup.
package config
