package config

import (
	"fmt"
	"slices"

	"github.com/goccy/go-yaml"

	"github.com/stolasapp/wysiwyg/internal/content"
)

// ErrUnknownModifier is returned when the chain names a modifier that does not
// exist.
const ErrUnknownModifier = Error("unknown modifier")

// Error is an error type for configuration failures.
type Error string

// Error satisfies [error].
func (e Error) Error() string { return string(e) }

// factory builds a modifier from its raw options.
type factory func(options map[string]any) (content.Modifier, error)

// decoded returns a factory that decodes raw options into T, rejecting
// unknown keys, before handing them to build.
func decoded[T any](build func(T) (content.Modifier, error)) factory {
	return func(options map[string]any) (content.Modifier, error) {
		var opts T
		if len(options) > 0 {
			data, err := yaml.Marshal(options)
			if err != nil {
				return nil, fmt.Errorf("failed to marshal options: %w", err)
			}
			if err = yaml.UnmarshalWithOptions(data, &opts, yaml.Strict()); err != nil {
				return nil, fmt.Errorf("failed to decode options: %w", err)
			}
		}
		return build(opts)
	}
}

// infallible adapts a constructor that cannot fail.
func infallible[T any](build func(T) content.Modifier) func(T) (content.Modifier, error) {
	return func(opts T) (content.Modifier, error) { return build(opts), nil }
}

type (
	noOptions struct{}

	bbcodeOptions struct {
		Tags map[string]string `yaml:"tags"`
	}

	nlToBrOptions struct {
		Search  string `yaml:"search"`
		Replace string `yaml:"replace"`
	}

	stripTagsOptions struct {
		Allow []string `yaml:"allow"`
	}

	treatTagsOptions struct {
		Tags map[string]struct {
			AllowAttr map[string]struct {
				AllowToBeginWith []string `yaml:"allow_to_begin_with"`
			} `yaml:"allow_attr"`
			InsertAttr map[string]string `yaml:"insert_attr"`
		} `yaml:"tags"`
	}

	linkOptions struct {
		Class  string `yaml:"class"`
		Target string `yaml:"target"`
	}

	mailOptions struct {
		Class string `yaml:"class"`
	}

	parseVariablesOptions struct {
		Accept    map[string]string `yaml:"accept"`
		In        string            `yaml:"in"`
		OnMissing string            `yaml:"on_missing"`
		Escape    bool              `yaml:"escape"`
	}

	absolutePathOptions struct {
		Prefix string `yaml:"prefix"`
	}

	wordsFilterOptions struct {
		Words       []string `yaml:"words"`
		Replacement string   `yaml:"replacement"`
	}

	emptyParagraphsOptions struct {
		Tags []string `yaml:"tags"`
	}

	markdownOptions struct {
		Unsafe bool `yaml:"unsafe"`
	}

	charsetOptions struct {
		ContentType string `yaml:"content_type"`
	}
)

var missingPolicies = map[string]content.MissingPolicy{
	"":       content.MissingKeep,
	"keep":   content.MissingKeep,
	"remove": content.MissingRemove,
	"error":  content.MissingError,
}

// registry maps modifier names, as used in configuration files, to their
// factories.
var registry = map[string]factory{
	"bbcode": decoded(func(o bbcodeOptions) (content.Modifier, error) {
		return content.BBCode(content.BBCodeOptions{Tags: o.Tags})
	}),
	"nl_to_br": decoded(infallible(func(o nlToBrOptions) content.Modifier {
		return content.NlToBr(content.NlToBrOptions{Search: o.Search, Replace: o.Replace})
	})),
	"strip_tags": decoded(func(o stripTagsOptions) (content.Modifier, error) {
		return content.StripTags(content.StripTagsOptions{Allow: o.Allow})
	}),
	"treat_tags": decoded(func(o treatTagsOptions) (content.Modifier, error) {
		opts := content.TreatTagsOptions{}
		if len(o.Tags) > 0 {
			opts.Tags = make(map[string]content.TagRule, len(o.Tags))
		}
		for name, tag := range o.Tags {
			rule := content.TagRule{
				AllowAttrs:  make(map[string]content.AttrRule, len(tag.AllowAttr)),
				InsertAttrs: tag.InsertAttr,
			}
			for attr, ar := range tag.AllowAttr {
				rule.AllowAttrs[attr] = content.AttrRule{AllowPrefixes: ar.AllowToBeginWith}
			}
			opts.Tags[name] = rule
		}
		return content.TreatTags(opts)
	}),
	"url_to_link": decoded(infallible(func(o linkOptions) content.Modifier {
		return content.URLToLink(content.URLToLinkOptions{Class: o.Class, Target: o.Target})
	})),
	"mail_to_link": decoded(infallible(func(o mailOptions) content.Modifier {
		return content.MailToLink(content.MailToLinkOptions{Class: o.Class})
	})),
	"parse_variables": decoded(func(o parseVariablesOptions) (content.Modifier, error) {
		policy, ok := missingPolicies[o.OnMissing]
		if !ok {
			return nil, fmt.Errorf("%w: parse_variables on_missing: must be keep, remove or error, got %q",
				content.ErrInvalidOption, o.OnMissing)
		}
		return content.ParseVariables(content.ParseVariablesOptions{
			Accept:    o.Accept,
			In:        o.In,
			OnMissing: policy,
			Escape:    o.Escape,
		})
	}),
	"absolute_path": decoded(func(o absolutePathOptions) (content.Modifier, error) {
		return content.AbsolutePath(content.AbsolutePathOptions{Prefix: o.Prefix})
	}),
	"words_filter": decoded(func(o wordsFilterOptions) (content.Modifier, error) {
		return content.WordsFilter(content.WordsFilterOptions{Words: o.Words, Replacement: o.Replacement})
	}),
	"empty_paragraphs": decoded(func(o emptyParagraphsOptions) (content.Modifier, error) {
		return content.EmptyParagraphs(content.EmptyParagraphsOptions{Tags: o.Tags})
	}),
	"sanitize_html": decoded(infallible(func(noOptions) content.Modifier {
		return content.SanitizeHTML()
	})),
	"normalize_nbsp": decoded(infallible(func(noOptions) content.Modifier {
		return content.NormalizeNBSP()
	})),
	"markdown_to_html": decoded(infallible(func(o markdownOptions) content.Modifier {
		return content.MarkdownToHTML(content.MarkdownToHTMLOptions{Unsafe: o.Unsafe})
	})),
	"decode_charset": decoded(infallible(func(o charsetOptions) content.Modifier {
		return content.DecodeCharset(o.ContentType)
	})),
}

// Modifiers returns the sorted names of all known modifiers.
func Modifiers() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Build constructs the configured modifiers in order.
func Build(chain []ModifierConfig) ([]content.Modifier, error) {
	modifiers := make([]content.Modifier, 0, len(chain))
	for idx, entry := range chain {
		build, ok := registry[entry.Name]
		if !ok {
			return nil, fmt.Errorf("chain[%d]: %w %q", idx, ErrUnknownModifier, entry.Name)
		}
		mod, err := build(entry.Options)
		if err != nil {
			return nil, fmt.Errorf("chain[%d] (%s): %w", idx, entry.Name, err)
		}
		modifiers = append(modifiers, mod)
	}
	return modifiers, nil
}

// NewProcessor builds a processor running the configured chain. When
// CacheBytes is positive the whole chain is memoized.
func (c *Config) NewProcessor() (*content.Processor, error) {
	if c.CacheBytes > 0 {
		chain, err := c.Modifier()
		if err != nil {
			return nil, err
		}
		return content.NewProcessor(chain), nil
	}
	modifiers, err := Build(c.Chain)
	if err != nil {
		return nil, err
	}
	return content.NewProcessor(modifiers...), nil
}

// Modifier builds the configured chain as a single modifier, memoized when
// CacheBytes is positive. Every built-in modifier is stateless, so the result
// may be shared between goroutines and its cache with them.
func (c *Config) Modifier() (content.Modifier, error) {
	modifiers, err := Build(c.Chain)
	if err != nil {
		return nil, err
	}
	chain := content.WithName("chain", content.Chain(modifiers...))
	if c.CacheBytes > 0 {
		return content.Memoize(chain, c.CacheBytes), nil
	}
	return chain, nil
}
