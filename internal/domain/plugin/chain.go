package plugin

import (
	"fmt"
	"sync"
)

// Chain is the ordered list of plugin instances owned by one track or input.
//
// Position is identity: the instance at index k is addressed as k, and deleting
// it moves every later instance down by one.
type Chain struct {
	mu        sync.Mutex
	instances []Instance
}

// NewChain returns an empty chain.
func NewChain() *Chain {
	return &Chain{}
}

// Add appends inst and returns its 1-based index.
func (c *Chain) Add(inst Instance) (InstanceIndex, error) {
	if err := ValidateInstance(inst); err != nil {
		return Undefined, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.instances = append(c.instances, inst)
	return InstanceIndex(len(c.instances)), nil
}

// Delete removes the instance at idx, shifting later instances down.
func (c *Chain) Delete(idx InstanceIndex) error {
	if err := CheckIndex(idx); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.inRange(idx); err != nil {
		return err
	}
	i := int(idx) - 1
	c.instances = append(c.instances[:i], c.instances[i+1:]...)
	return nil
}

// SetDryWet updates the mix of the instance at idx in place.
func (c *Chain) SetDryWet(idx InstanceIndex, dryWet int) error {
	if err := CheckIndex(idx); err != nil {
		return err
	}
	if err := ValidateDryWet(dryWet); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.inRange(idx); err != nil {
		return err
	}
	c.instances[idx-1].DryWet = dryWet
	return nil
}

// Get returns the instance at idx.
func (c *Chain) Get(idx InstanceIndex) (Instance, error) {
	if err := CheckIndex(idx); err != nil {
		return Instance{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.inRange(idx); err != nil {
		return Instance{}, err
	}
	return c.instances[idx-1], nil
}

// Instances returns a copy of the chain in order.
func (c *Chain) Instances() []IndexedInstance {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]IndexedInstance, len(c.instances))
	for i, inst := range c.instances {
		out[i] = IndexedInstance{Index: InstanceIndex(i + 1), Instance: inst}
	}
	return out
}

// Len returns the number of instances.
func (c *Chain) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.instances)
}

func (c *Chain) inRange(idx InstanceIndex) error {
	if int(idx) > len(c.instances) {
		return fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, idx, len(c.instances))
	}
	return nil
}
