package sourceclass

import "github.com/bittoy/fieldrule/types"

// RegisterAll registers DictSource, VariantSource, and HoldingRegisterSource
// against classes. It is the static-registration replacement spec §9 calls
// for in place of dynamic class registration via file-load side effects.
func RegisterAll(classes types.ClassRegistry) error {
	if err := classes.RegisterClass(DictTypeName, NewDictSource); err != nil {
		return err
	}
	if err := classes.RegisterClass(VariantTypeName, NewVariantSource); err != nil {
		return err
	}
	if err := classes.RegisterClass(HoldingRegisterTypeName, NewHoldingRegisterSource); err != nil {
		return err
	}
	return nil
}
