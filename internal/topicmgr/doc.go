// Package topicmgr keeps the catalogue of message bus topics. Topics are
// defined once as package-level values, registered with a Manager and
// listed by tooling such as relayctl.
//
// Framework topics belong to the connection layer:
//
//	var ClientConnected = topicmgr.DefineFramework(topicmgr.TopicConfig{
//		Name:        "clients.connected",
//		Description: "Published after a client is registered",
//		Pattern:     "clients.connected",
//	})
//
// Module topics carry an owning module:
//
//	var UpdateRequested = topicmgr.DefineModule(topicmgr.TopicConfig{
//		Name:        "updates.requested",
//		Module:      "updates",
//		Description: "A domain update waiting to be broadcast",
//		Pattern:     "updates.requested",
//	})
package topicmgr
