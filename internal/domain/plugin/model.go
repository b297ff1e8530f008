package plugin

// Instance is one configured effect in an owner's chain.
type Instance struct {
	PluginID  PluginID  `json:"plugin_id"`
	ProgramID ProgramID `json:"program_id"`
	DryWet    int       `json:"dry_wet"`
}

// IndexedInstance pairs an instance with its current position.
type IndexedInstance struct {
	Index InstanceIndex `json:"index"`
	Instance
}

// Plugin is a catalog entry reported by the hosting layer.
type Plugin struct {
	ID   PluginID `json:"id"`
	Name string   `json:"name"`
}

// Program is a named preset of a plugin.
type Program struct {
	PluginID PluginID  `json:"plugin_id"`
	ID       ProgramID `json:"id"`
	Name     string    `json:"name"`
}
